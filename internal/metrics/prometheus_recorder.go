package metrics

import (
	"sort"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics. refdocs is
// a batch tool, so instead of exposing an endpoint the CLI gathers the
// registry at the end of a run and folds the counts into the run summary.
type PrometheusRecorder struct {
	once     sync.Once
	registry *prom.Registry

	pages       *prom.CounterVec
	skeletons   prom.Counter
	preserved   prom.Counter
	resolution  prom.Counter
	ignored     prom.Counter
	shells      prom.Counter
	runDuration prom.Histogram
	runOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers generation metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.pages = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "pages_generated_total",
			Help:      "Generated pages by node kind",
		}, []string{"kind"})
		pr.skeletons = prom.NewCounter(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "sidecar_skeletons_written_total",
			Help:      "Sidecar skeletons created for first-seen UIDs",
		})
		pr.preserved = prom.NewCounter(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "sidecars_preserved_total",
			Help:      "Existing sidecar files left untouched",
		})
		pr.resolution = prom.NewCounter(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "resolution_failures_total",
			Help:      "UID references that failed to resolve",
		})
		pr.ignored = prom.NewCounter(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "ignored_entities_total",
			Help:      "Types and members excluded by the ignore policy",
		})
		pr.shells = prom.NewCounter(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "shell_pages_converted_total",
			Help:      "Historical pages converted to shells during promotion",
		})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "refdocs",
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "refdocs",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.pages, pr.skeletons, pr.preserved, pr.resolution,
			pr.ignored, pr.shells, pr.runDuration, pr.runOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) IncPagesGenerated(kind string) {
	p.pages.WithLabelValues(kind).Inc()
}
func (p *PrometheusRecorder) IncSkeletonsWritten()   { p.skeletons.Inc() }
func (p *PrometheusRecorder) IncSidecarsPreserved()  { p.preserved.Inc() }
func (p *PrometheusRecorder) IncResolutionFailures() { p.resolution.Inc() }
func (p *PrometheusRecorder) IncIgnoredEntities()    { p.ignored.Inc() }
func (p *PrometheusRecorder) IncShellsConverted()    { p.shells.Inc() }
func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcome.WithLabelValues(outcome).Inc()
}

// Snapshot gathers the registry into a flat metric->value map for the run
// summary. Histograms contribute their sample count.
func (p *PrometheusRecorder) Snapshot() (map[string]float64, error) {
	families, err := p.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			labels := m.GetLabel()
			if len(labels) > 0 {
				parts := make([]string, 0, len(labels))
				for _, l := range labels {
					parts = append(parts, l.GetName()+"="+l.GetValue())
				}
				sort.Strings(parts)
				name += "{"
				for i, part := range parts {
					if i > 0 {
						name += ","
					}
					name += part
				}
				name += "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}
