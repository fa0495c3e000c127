/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for resolution counters
const (
	OutcomeCached    = "cached"
	OutcomeConstruct = "constructed"
	OutcomeError     = "error"
)

// Metrics groups every collector exported by entitybind
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	Constructions   *prometheus.CounterVec
	Replacements    *prometheus.CounterVec
	ShapesBuilt     prometheus.Counter
	ObjectsBuilt    *prometheus.CounterVec
	TrackedEntries  prometheus.Gauge
	CollectedTotal  prometheus.Counter
	SweepsTotal     prometheus.Counter
	IncludesApplied *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them on reg.
// A nil reg creates unregistered collectors, which is handy in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "resolutions_total",
			Help:      "Contract resolutions by outcome.",
		}, []string{"contract", "outcome"}),
		Constructions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "constructions_total",
			Help:      "Implementation instances produced by providers.",
		}, []string{"contract"}),
		Replacements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "replacements_total",
			Help:      "Forced singleton instance replacements.",
		}, []string{"contract"}),
		ShapesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dynamic",
			Name:      "descriptors_total",
			Help:      "Dynamic type descriptors synthesized.",
		}),
		ObjectsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dynamic",
			Name:      "objects_total",
			Help:      "Dynamic objects emitted per shape.",
		}, []string{"shape"}),
		TrackedEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "tracked_entries",
			Help:      "Entries currently held by the lifecycle tracker.",
		}),
		CollectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "collected_total",
			Help:      "Entries removed after their subject became unreachable.",
		}),
		SweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "sweeps_total",
			Help:      "Completed sweep passes.",
		}),
		IncludesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "includes_total",
			Help:      "Eager-load instructions appended by auto-include.",
		}, []string{"entity"}),
	}
}

// ObserveResolution counts a resolution outcome for contract
func (m *Metrics) ObserveResolution(contract, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(contract, outcome).Inc()
}

// ObserveConstruction counts one provider invocation for contract
func (m *Metrics) ObserveConstruction(contract string) {
	if m == nil {
		return
	}
	m.Constructions.WithLabelValues(contract).Inc()
}

// ObserveReplacement counts one forced replacement for contract
func (m *Metrics) ObserveReplacement(contract string) {
	if m == nil {
		return
	}
	m.Replacements.WithLabelValues(contract).Inc()
}

// ObserveShape counts one synthesized descriptor
func (m *Metrics) ObserveShape() {
	if m == nil {
		return
	}
	m.ShapesBuilt.Inc()
}

// ObserveObject counts one emitted object of shape
func (m *Metrics) ObserveObject(shape string) {
	if m == nil {
		return
	}
	m.ObjectsBuilt.WithLabelValues(shape).Inc()
}

// SetTracked publishes the tracker's current entry count
func (m *Metrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.TrackedEntries.Set(float64(n))
}

// ObserveSweep records a finished sweep and how many entries it collected
func (m *Metrics) ObserveSweep(collected int) {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
	m.CollectedTotal.Add(float64(collected))
}

// ObserveIncludes counts eager-load paths appended for entity
func (m *Metrics) ObserveIncludes(entity string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.IncludesApplied.WithLabelValues(entity).Add(float64(n))
}
