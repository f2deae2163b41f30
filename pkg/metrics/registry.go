package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry exposes the scheduler's runtime counters to Prometheus,
// following the collector-with-named-fields shape used throughout the
// teacher's monitoring package.
type Registry struct {
	registry *prometheus.Registry

	TasksScheduled   prometheus.Counter
	TasksStolen      prometheus.Counter
	TasksDeferred    prometheus.Counter
	TasksExhausted   prometheus.Counter
	SchedulingTime   prometheus.Histogram
	MakespanSeconds  prometheus.Gauge
	EnergyJoules     prometheus.Counter
	ResourceUtilized *prometheus.GaugeVec
}

// NewRegistry builds a Registry and registers every metric against a fresh
// prometheus.Registry (never the global DefaultRegisterer, so multiple
// Registry instances can coexist in the same process, e.g. in tests).
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		TasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heft_tasks_scheduled_total",
			Help: "Total tasks placed onto a resource by the HEFT planner.",
		}),
		TasksStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heft_runtime_tasks_stolen_total",
			Help: "Total tasks delivered via a cross-worker steal.",
		}),
		TasksDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heft_policy_tasks_deferred_total",
			Help: "Total task executions re-enqueued by the policy scheduler.",
		}),
		TasksExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heft_policy_tasks_exhausted_total",
			Help: "Total tasks dropped after the drain-attempt limit was reached.",
		}),
		SchedulingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heft_plan_duration_seconds",
			Help:    "Wall-clock time spent inside Plan.",
			Buckets: prometheus.DefBuckets,
		}),
		MakespanSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heft_schedule_makespan_seconds",
			Help: "Makespan of the most recently produced schedule.",
		}),
		EnergyJoules: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heft_energy_joules_total",
			Help: "Cumulative estimated energy consumed across all scheduled tasks.",
		}),
		ResourceUtilized: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "heft_resource_utilization_percent",
			Help: "Percent of makespan each resource spent busy, by resource id.",
		}, []string{"resource_id"}),
	}

	reg.MustRegister(
		r.TasksScheduled,
		r.TasksStolen,
		r.TasksDeferred,
		r.TasksExhausted,
		r.SchedulingTime,
		r.MakespanSeconds,
		r.EnergyJoules,
		r.ResourceUtilized,
	)
	return r
}

// Gatherer exposes the underlying prometheus.Registry for wiring into an
// HTTP handler (promhttp.HandlerFor); serving that handler is left to the
// caller.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveSchedule records one completed HEFT planning run: how many tasks
// it placed, how long it took, the produced schedule's makespan and
// energy, and per-resource utilization. Safe to call with a nil Registry,
// so callers that don't care about metrics can pass one through unchanged.
func (r *Registry) ObserveSchedule(taskCount int, elapsed time.Duration, makespanSeconds, energyJoules float64, utilizationPercent map[int]float64) {
	if r == nil {
		return
	}
	r.TasksScheduled.Add(float64(taskCount))
	r.SchedulingTime.Observe(elapsed.Seconds())
	r.MakespanSeconds.Set(makespanSeconds)
	r.EnergyJoules.Add(energyJoules)
	for id, pct := range utilizationPercent {
		r.ResourceUtilized.WithLabelValues(strconv.Itoa(id)).Set(pct)
	}
}

// ObserveSteal records one task delivered to a thief via a cross-worker
// steal. Safe to call with a nil Registry.
func (r *Registry) ObserveSteal() {
	if r == nil {
		return
	}
	r.TasksStolen.Inc()
}

// ObserveDeferred records one task execution re-enqueued by the policy
// scheduler after a budget or deadline violation. Safe to call with a nil
// Registry.
func (r *Registry) ObserveDeferred() {
	if r == nil {
		return
	}
	r.TasksDeferred.Inc()
}

// ObserveExhausted records one task dropped after exhausting its
// drain-attempt budget. Safe to call with a nil Registry.
func (r *Registry) ObserveExhausted() {
	if r == nil {
		return
	}
	r.TasksExhausted.Inc()
}
