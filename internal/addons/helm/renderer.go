package helm

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/engine"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
)

// KubeVersion is the Kubernetes version charts are rendered against.
const KubeVersion = "v1.31.4"

// Renderer downloads charts and renders them with values. Downloaded
// charts are kept in memory, keyed by spec.
type Renderer struct {
	mu       sync.Mutex
	cache    map[ChartSpec]*chart.Chart
	download func(ctx context.Context, spec ChartSpec) (*chart.Chart, error)
}

// NewRenderer returns a renderer that downloads charts over HTTP(S).
func NewRenderer() *Renderer {
	return &Renderer{
		cache:    make(map[ChartSpec]*chart.Chart),
		download: DownloadChart,
	}
}

// Render renders the chart identified by spec as releaseName in namespace.
func (r *Renderer) Render(ctx context.Context, spec ChartSpec, releaseName, namespace string, values Values) ([]byte, error) {
	ch, err := r.chart(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to download chart: %w", err)
	}

	manifests, err := RenderChart(ch, releaseName, namespace, values)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart %s: %w", spec.Name, err)
	}
	return manifests, nil
}

func (r *Renderer) chart(ctx context.Context, spec ChartSpec) (*chart.Chart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.cache[spec]; ok {
		return ch, nil
	}
	ch, err := r.download(ctx, spec)
	if err != nil {
		return nil, err
	}
	r.cache[spec] = ch
	return ch, nil
}

// DownloadChart fetches a chart archive from its repository and loads it.
func DownloadChart(ctx context.Context, spec ChartSpec) (*chart.Chart, error) {
	if spec.Repository == "" || spec.Name == "" {
		return nil, fmt.Errorf("incomplete chart spec %+v", spec)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	providers := getter.All(cli.New())

	chartURL, err := repo.FindChartInRepoURL(spec.Repository, spec.Name, spec.Version, "", "", "", providers)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart %s in repo %s: %w", spec.Name, spec.Repository, err)
	}

	u, err := url.Parse(chartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid chart URL %s: %w", chartURL, err)
	}
	g, err := providers.ByScheme(u.Scheme)
	if err != nil {
		return nil, err
	}

	data, err := g.Get(chartURL, getter.WithURL(spec.Repository))
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", chartURL, err)
	}

	ch, err := loader.LoadArchive(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart archive %s: %w", chartURL, err)
	}
	return ch, nil
}

// RenderChart renders a loaded chart. Chart defaults are deep-merged with
// values. CRDs and Namespaces come first in the output so that a single
// pass of server-side apply can create everything.
func RenderChart(ch *chart.Chart, releaseName, namespace string, values Values) ([]byte, error) {
	merged := DeepMerge(Values(ch.Values), values)

	releaseOptions := chartutil.ReleaseOptions{
		Name:      releaseName,
		Namespace: namespace,
		IsInstall: true,
	}

	capabilities := chartutil.DefaultCapabilities.Copy()
	capabilities.KubeVersion.Version = KubeVersion
	capabilities.KubeVersion.Major = "1"
	capabilities.KubeVersion.Minor = "31"

	valuesToRender, err := chartutil.ToRenderValues(ch, chartutil.Values(merged.ToMap()), releaseOptions, capabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare values: %w", err)
	}

	rendered, err := engine.Engine{}.Render(ch, valuesToRender)
	if err != nil {
		return nil, fmt.Errorf("failed to render templates: %w", err)
	}

	var first, rest []string
	for _, crd := range ch.CRDObjects() {
		first = append(first, strings.TrimSpace(string(crd.File.Data)))
	}

	for _, name := range slices.Sorted(maps.Keys(rendered)) {
		if filepath.Base(name) == "NOTES.txt" {
			continue
		}
		for _, doc := range splitDocuments(rendered[name]) {
			if isBootstrapKind(doc) {
				first = append(first, doc)
			} else {
				rest = append(rest, doc)
			}
		}
	}

	var combined bytes.Buffer
	for _, doc := range append(first, rest...) {
		if doc == "" {
			continue
		}
		if combined.Len() > 0 {
			combined.WriteString("---\n")
		}
		combined.WriteString(doc)
		combined.WriteString("\n")
	}
	return combined.Bytes(), nil
}

// splitDocuments splits a YAML stream on document separators and drops
// empty documents.
func splitDocuments(content string) []string {
	var docs []string
	for _, part := range strings.Split("\n"+content, "\n---") {
		part = strings.TrimSpace(part)
		if part == "" || onlyComments(part) {
			continue
		}
		docs = append(docs, part)
	}
	return docs
}

func onlyComments(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}

func isBootstrapKind(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if kind, ok := strings.CutPrefix(line, "kind:"); ok {
			kind = strings.TrimSpace(kind)
			return kind == "CustomResourceDefinition" || kind == "Namespace"
		}
	}
	return false
}
