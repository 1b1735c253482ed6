// Package metrics exposes consensus, synonym and grouping counters through a
// private Prometheus registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taxonid"

// Recorder owns the registry and collectors.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	synonyms    *prometheus.CounterVec
	groupSize   prometheus.Histogram
	events      *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_evaluations_total",
			Help:      "Consensus evaluations by resulting grade.",
		}, []string{"grade"}),
		synonyms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synonym_resolutions_total",
			Help:      "Synonym resolutions by outcome.",
		}, []string{"outcome"}),
		groupSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hierarchy_group_size",
			Help:      "Candidates per hierarchy grouping call.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identification_events_total",
			Help:      "Applied identification lifecycle events by kind.",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.evaluations, r.synonyms, r.groupSize, r.events)
	return r
}

// Registry returns the underlying registry, or nil for a nil recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveConsensus counts one evaluation that produced grade.
func (r *Recorder) ObserveConsensus(grade string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(label(grade)).Inc()
}

// ObserveSynonym counts one synonym resolution.
func (r *Recorder) ObserveSynonym(outcome string) {
	if r == nil {
		return
	}
	r.synonyms.WithLabelValues(label(outcome)).Inc()
}

// ObserveGroup records how many candidates a grouping call received.
func (r *Recorder) ObserveGroup(size int) {
	if r == nil {
		return
	}
	r.groupSize.Observe(float64(size))
}

// ObserveEvent counts one applied lifecycle event.
func (r *Recorder) ObserveEvent(kind string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(label(kind)).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
