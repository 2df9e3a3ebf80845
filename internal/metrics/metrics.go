package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"scoby_collective/internal/domain"
)

var (
	workerCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_workers",
		Help: "Number of workers in the collective",
	})
	pendingTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_tasks_pending",
		Help: "Number of tasks waiting for assignment",
	})
	assignedTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_tasks_assigned",
		Help: "Number of tasks currently assigned to a worker",
	})
	completedTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_tasks_completed_total",
		Help: "Total number of tasks completed",
	})
	failedTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_tasks_failed_total",
		Help: "Total number of tasks failed",
	})
	totalCreditsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_credits_total",
		Help: "Total credits held across the collective",
	})
	consciousnessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_collective_consciousness",
		Help: "Emergence-amplified sum of worker contributions",
	})
	emergenceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_emergence_factor",
		Help: "Super-additive output multiplier (>= 1)",
	})
	diversityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_diversity_index",
		Help: "Normalized entropy of the mode distribution",
	})
	qualityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scoby_collective_quality",
		Help: "Mode-weighted mean worker quality",
	})
	modeWorkersGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scoby_mode_workers",
		Help: "Number of workers per operating mode",
	}, []string{"mode"})
)

// NewRegistry returns a prometheus registry with all collective gauges
// registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		workerCountGauge,
		pendingTasksGauge,
		assignedTasksGauge,
		completedTasksGauge,
		failedTasksGauge,
		totalCreditsGauge,
		consciousnessGauge,
		emergenceGauge,
		diversityGauge,
		qualityGauge,
		modeWorkersGauge,
	)
	return reg
}

// Update pushes an engine metrics snapshot into the gauges.
func Update(m domain.Metrics) {
	workerCountGauge.Set(float64(m.WorkerCount))
	pendingTasksGauge.Set(float64(m.PendingTasks))
	assignedTasksGauge.Set(float64(m.AssignedTasks))
	completedTasksGauge.Set(float64(m.CompletedTasks))
	failedTasksGauge.Set(float64(m.FailedTasks))
	totalCreditsGauge.Set(m.TotalCredits)
	consciousnessGauge.Set(m.CollectiveConsciousness)
	emergenceGauge.Set(m.EmergenceFactor)
	diversityGauge.Set(m.DiversityIndex)
	qualityGauge.Set(m.CollectiveQuality)
	for _, mode := range domain.Modes() {
		modeWorkersGauge.WithLabelValues(string(mode)).Set(float64(m.ModeCounts[mode]))
	}
}
