package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cms"

// Recorder collects resolution, mutation and form submission counters on a
// private registry. It satisfies the resolver, mutation, forms and commands observers.
type Recorder struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	updates     *prometheus.CounterVec
	deletions   *prometheus.CounterVec
	submissions *prometheus.CounterVec
	commands    *prometheus.CounterVec
}

// New builds a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Document resolutions by collection and outcome",
		}, []string{"collection", "outcome"}),
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutation",
			Name:      "updates_total",
			Help:      "Localized updates by collection and outcome",
		}, []string{"collection", "outcome"}),
		deletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutation",
			Name:      "deletions_total",
			Help:      "Document deletions by collection, method and status",
		}, []string{"collection", "method", "status"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by form slug and outcome",
		}, []string{"form", "outcome"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "executions_total",
			Help:      "Command executions by operation and status",
		}, []string{"operation", "status"}),
	}
}

func (r *Recorder) ObserveResolution(collection, outcome string) {
	r.resolutions.WithLabelValues(collection, outcome).Inc()
}

func (r *Recorder) ObserveUpdate(collection, outcome string) {
	r.updates.WithLabelValues(collection, outcome).Inc()
}

func (r *Recorder) ObserveDeletion(collection, method, status string) {
	r.deletions.WithLabelValues(collection, method, status).Inc()
}

func (r *Recorder) ObserveSubmission(form, outcome string) {
	r.submissions.WithLabelValues(form, outcome).Inc()
}

func (r *Recorder) ObserveCommand(operation, status string) {
	r.commands.WithLabelValues(operation, status).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
