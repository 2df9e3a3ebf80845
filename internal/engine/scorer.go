package engine

import (
	"math"
	"sort"
	"time"

	"scoby_collective/internal/domain"
	"scoby_collective/internal/policy"
)

// Fitness weights. They must total 1.0 so the score stays in [0, 1].
const (
	weightModeMatch      = 0.4
	weightResources      = 0.3
	weightSpecialization = 0.2
	weightLoad           = 0.1

	// minAvailability gates workers out of allocation entirely.
	minAvailability = 0.1

	// maxQueueDepth is where the load component bottoms out at zero.
	maxQueueDepth = 10
)

// Score rates how well a worker fits a task, in [0, 1]. Pure and
// deterministic given the current worker and task fields.
func Score(w *domain.Worker, t *domain.Task) float64 {
	score := scoreModeMatch(w, t) * weightModeMatch
	score += scoreResources(w, t) * weightResources
	score += scoreSpecialization(w, t) * weightSpecialization
	score += scoreLoad(w) * weightLoad
	return score
}

func scoreModeMatch(w *domain.Worker, t *domain.Task) float64 {
	switch {
	case t.PreferredMode == nil:
		return 1.0
	case w.Mode == *t.PreferredMode:
		return 1.0
	case w.Mode == domain.ModeC:
		// Hybrid workers can run either regime at a discount.
		return 0.7
	default:
		return 0.3
	}
}

func scoreResources(w *domain.Worker, t *domain.Task) float64 {
	if t.Cost <= 0 {
		return 1.0
	}
	return math.Min(1.0, w.CreditBalance/t.Cost)
}

func scoreSpecialization(w *domain.Worker, t *domain.Task) float64 {
	switch {
	case policy.Specializes(w.Role, t.Type):
		return 1.0
	case w.Role == domain.RoleGeneralist:
		return 0.7
	default:
		return 0.5
	}
}

func scoreLoad(w *domain.Worker) float64 {
	return math.Max(0, 1.0-float64(len(w.TaskQueue))/maxQueueDepth)
}

// trustWeight maps a trust score in [0.1, 2.0] to a bounded multiplicative
// boost in [1, φ], monotonic in trust.
func trustWeight(trust float64) float64 {
	phi := (1 + math.Sqrt(5)) / 2
	normalized := clamp01(trust / 2.0)
	return 1.0 + normalized*(phi-1.0)
}

// AllocateTask assigns a pending task to the best-fit available worker.
// It returns the chosen worker ID and whether an assignment happened;
// finding no suitable worker is a normal outcome, not an error, and leaves
// the task pending for a later retry.
func (e *Engine) AllocateTask(taskID string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.tasks.get(taskID)
	if err != nil {
		return "", false, err
	}
	if t.Status != domain.TaskStatusPending {
		e.log.Debug().Str("task", taskID).Str("status", string(t.Status)).Msg("allocate skipped, task not pending")
		return "", false, nil
	}

	type candidate struct {
		worker *domain.Worker
		score  float64
	}
	var candidates []candidate
	for _, w := range e.workers.list() {
		if w.Availability < minAvailability {
			continue
		}
		weighted := Score(w, t) * trustWeight(w.TrustScore)
		candidates = append(candidates, candidate{worker: w, score: weighted})
	}
	if len(candidates) == 0 {
		return "", false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if len(a.worker.TaskQueue) != len(b.worker.TaskQueue) {
			return len(a.worker.TaskQueue) < len(b.worker.TaskQueue)
		}
		return a.worker.ID < b.worker.ID
	})

	best := candidates[0].worker
	now := time.Now().UTC()
	t.AssignedWorker = best.ID
	t.Status = domain.TaskStatusAssigned
	t.UpdatedAt = now
	best.TaskQueue = append(best.TaskQueue, taskID)
	best.UpdatedAt = now

	e.log.Debug().Str("task", taskID).Str("worker", best.ID).Float64("score", candidates[0].score).Msg("task assigned")
	e.bus.Publish(domain.Event{Kind: domain.EventTaskAssigned, TaskID: taskID, WorkerID: best.ID, CreatedAt: now})
	return best.ID, true, nil
}
