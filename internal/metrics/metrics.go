// Package metrics is a minimal Prometheus text-format exposition registry.
// No repository in the retrieved corpus imports a metrics client library
// with retrievable source (only sourceless go.mod manifests reference
// prometheus/client_golang), so this registry is a small stdlib-only
// counter/gauge store that renders the same exposition format a real
// client library would, keeping the /metrics contract intact without
// fabricating a dependency the corpus never actually shows in use.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Registry holds a fixed namespace of counters and gauges, each optionally
// labelled. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	counters map[string]map[string]float64
	gauges   map[string]map[string]float64
	help     map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]map[string]float64),
		gauges:   make(map[string]map[string]float64),
		help:     make(map[string]string),
	}
}

// labelKey renders a label set into a stable string key and its
// Prometheus-syntax rendering, e.g. `{symbol="AAPL",type="PRICE_SPIKE"}`.
func labelKey(labels map[string]string) (string, string) {
	if len(labels) == 0 {
		return "", ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	var rb strings.Builder
	rb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
			rb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%s", k, labels[k])
		fmt.Fprintf(&rb, "%s=%q", k, labels[k])
	}
	rb.WriteByte('}')
	return sb.String(), rb.String()
}

// Describe registers a metric's HELP text; optional, but renders a nicer
// /metrics page.
func (r *Registry) Describe(name, help string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.help[name] = help
}

// IncCounter adds delta (must be >= 0) to the named, labelled counter.
func (r *Registry) IncCounter(name string, labels map[string]string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, _ := labelKey(labels)
	bucket := r.counters[name]
	if bucket == nil {
		bucket = make(map[string]float64)
		r.counters[name] = bucket
	}
	bucket[key] += delta
}

// SetGauge sets the named, labelled gauge to value.
func (r *Registry) SetGauge(name string, labels map[string]string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, _ := labelKey(labels)
	bucket := r.gauges[name]
	if bucket == nil {
		bucket = make(map[string]float64)
		r.gauges[name] = bucket
	}
	bucket[key] = value
}

// Render produces the Prometheus text exposition format for every
// registered metric.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	r.renderFamily(&sb, "counter", r.counters)
	r.renderFamily(&sb, "gauge", r.gauges)
	return sb.String()
}

func (r *Registry) renderFamily(sb *strings.Builder, kind string, families map[string]map[string]float64) {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if help, ok := r.help[name]; ok {
			fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
		}
		fmt.Fprintf(sb, "# TYPE %s %s\n", name, kind)

		bucket := families[name]
		labelKeys := make([]string, 0, len(bucket))
		for k := range bucket {
			labelKeys = append(labelKeys, k)
		}
		sort.Strings(labelKeys)
		for _, lk := range labelKeys {
			labels := parseLabelKey(lk)
			_, rendered := labelKey(labels)
			fmt.Fprintf(sb, "%s%s %v\n", name, rendered, bucket[lk])
		}
	}
}

// Serve builds, without starting it, a bare /metrics server on addr for a
// headless process (price engine, aggregator, detector) that has no other
// HTTP surface of its own; the gateway instead mounts Render behind
// internal/gwhealth. The caller runs ListenAndServe in a goroutine and
// logs its terminal error itself.
func Serve(addr string, reg *Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reg.Render()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

// parseLabelKey reverses labelKey's sorted "k=v,k=v" encoding back into a
// label map for rendering; the canonical form never contains raw commas in
// values emitted by this package, which only labels symbols and enum-like
// strings.
func parseLabelKey(key string) map[string]string {
	labels := make(map[string]string)
	if key == "" {
		return labels
	}
	for _, pair := range strings.Split(key, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			labels[parts[0]] = parts[1]
		}
	}
	return labels
}
