package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the planner
	Registry = prometheus.NewRegistry()
	// PlansTotal counts completed plans by feasibility
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "haulplan_plans_total", Help: "Route plans produced, by feasibility."},
		[]string{"feasible"},
	)
	// InsertedStops counts rest and fuel stops added by the simulator
	InsertedStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "haulplan_inserted_stops_total", Help: "Rest and fuel stops inserted into plans."},
		[]string{"kind"},
	)
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "haulplan_plan_duration_seconds", Help: "Wall time spent planning one route.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1}},
	)
	// ReplanDecisions counts replan classifications
	ReplanDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "haulplan_replan_decisions_total", Help: "Replan decisions by event priority and outcome."},
		[]string{"priority", "triggered"},
	)
	// MatrixFallbackEdges counts distance matrix gaps filled with the default edge
	MatrixFallbackEdges = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "haulplan_matrix_fallback_edges_total", Help: "Sequencer edges that used the default distance."},
	)

	// EventsPublished counts broker publishes by event type and status
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "haulplan_events_published_total", Help: "Events handed to the broker, by type and status."},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(PlansTotal)
		Registry.MustRegister(InsertedStops)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(ReplanDecisions)
		Registry.MustRegister(MatrixFallbackEdges)
		Registry.MustRegister(EventsPublished)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// WriteTextfile dumps the registry in the node_exporter textfile format.
// CLI runs are short lived, so this replaces a scrape endpoint.
func WriteTextfile(path string) error {
	RegisterDefault()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Bool renders a label value for true/false dimensions.
func Bool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
