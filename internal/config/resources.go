package config

// MergeResources returns base with every non-zero field of override applied.
//
// Precedence is per field: a set override field replaces the base field, an
// unset (zero) override field keeps the base value. ExtraDisks is replaced as
// a whole when the override lists any disk. Neither argument is modified.
func MergeResources(base, override ResourceShape) ResourceShape {
	out := base
	if override.Cores != 0 {
		out.Cores = override.Cores
	}
	if override.Sockets != 0 {
		out.Sockets = override.Sockets
	}
	if override.MemoryMiB != 0 {
		out.MemoryMiB = override.MemoryMiB
	}
	if override.DiskGiB != 0 {
		out.DiskGiB = override.DiskGiB
	}
	if len(override.ExtraDisks) > 0 {
		out.ExtraDisks = append([]DiskSpec(nil), override.ExtraDisks...)
	} else if len(base.ExtraDisks) > 0 {
		out.ExtraDisks = append([]DiskSpec(nil), base.ExtraDisks...)
	}
	return out
}

// MergeProbeSettings applies the same per-field precedence as MergeResources.
func MergeProbeSettings(base, override ProbeSettings) ProbeSettings {
	out := base
	if override.Attempts != 0 {
		out.Attempts = override.Attempts
	}
	if override.Interval != 0 {
		out.Interval = override.Interval
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if override.StageTimeout != 0 {
		out.StageTimeout = override.StageTimeout
	}
	if override.MaxParallel != 0 {
		out.MaxParallel = override.MaxParallel
	}
	return out
}

// Clone returns a copy of r that shares no slices with it.
func (r ResourceShape) Clone() ResourceShape {
	out := r
	if r.ExtraDisks != nil {
		out.ExtraDisks = append([]DiskSpec(nil), r.ExtraDisks...)
	}
	return out
}
