package helm

// Values represents helm chart values as a map.
type Values map[string]any

// MergeCustomValues deep-merges user supplied values over generated ones.
func MergeCustomValues(base Values, custom map[string]any) Values {
	if len(custom) == 0 {
		return base
	}
	return DeepMerge(base, Values(custom))
}

// DeepMerge merges the given maps left to right into a new map. Nested
// maps are merged key by key; any other value, lists included, replaces
// what was there.
func DeepMerge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		result = mergeInto(result, m)
	}
	return result
}

func mergeInto(base, override Values) Values {
	result := make(Values, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		overrideMap, ok := asValues(v)
		if !ok {
			result[k] = v
			continue
		}
		baseMap, _ := asValues(result[k])
		result[k] = mergeInto(baseMap, overrideMap)
	}
	return result
}

func asValues(v any) (Values, bool) {
	switch m := v.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	}
	return nil, false
}

// ToMap converts v to plain nested map[string]any, as Helm expects.
func (v Values) ToMap() map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = plain(val)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case Values:
		return t.ToMap()
	case map[string]any:
		return Values(t).ToMap()
	case []Values:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e.ToMap()
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
