package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-collections/collections/queue"

	"scoby_collective/internal/domain"
	"scoby_collective/internal/engine"
	"scoby_collective/internal/logx"
	"scoby_collective/internal/policy"
)

var demoTaskTypes = []domain.TaskType{
	domain.TaskTypeStrategic,
	domain.TaskTypeResearch,
	domain.TaskTypeCrisis,
	domain.TaskTypeQuality,
	domain.TaskTypeCreative,
	domain.TaskTypeMaintenance,
}

var demoPhases = []domain.GrowthPhase{
	domain.GrowthPhaseStartup,
	domain.GrowthPhaseGrowth,
	domain.GrowthPhasePlateau,
	domain.GrowthPhaseDecline,
}

var demoInteractions = []domain.Interaction{
	domain.InteractionMutualism,
	domain.InteractionCompetition,
	domain.InteractionCommensalism,
	domain.InteractionAmensalism,
}

// runDemoFleet spins up a worker population across every role and keeps
// feeding it simulated tasks and external signals. Pending task IDs sit in
// a FIFO and get retried until a worker qualifies.
func (h *host) runDemoFleet(ctx context.Context) {
	fleetSize := intOrDefault(h.cfg.Demo.Workers, 8)
	roles := policy.Roles()
	workerIDs := make([]string, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		w, err := h.engine.AddWorker(engine.AddWorkerInput{
			ID:   fmt.Sprintf("worker-%d", i+1),
			Role: roles[i%len(roles)],
		})
		if err != nil {
			logx.Log.Warn().Err(err).Msg("demo worker add")
			continue
		}
		workerIDs = append(workerIDs, w.ID)
	}
	logx.Log.Info().Int("workers", len(workerIDs)).Msg("demo fleet ready")

	pending := queue.New()
	inFlight := map[string]time.Time{}

	generate := time.NewTicker(durationMS(h.cfg.Demo.TaskIntervalMS, 1500*time.Millisecond))
	drive := time.NewTicker(durationMS(h.cfg.Runtime.AllocateIntervalMS, 500*time.Millisecond))
	defer generate.Stop()
	defer drive.Stop()

	signalEvery := intOrDefault(h.cfg.Demo.SignalEveryN, 5)
	tick := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-generate.C:
			t, err := h.engine.AddTask(engine.AddTaskInput{
				Type:       demoTaskTypes[rand.Intn(len(demoTaskTypes))],
				Complexity: 0.3 + rand.Float64()*0.6,
				Urgency:    0.1 + rand.Float64()*0.7,
				Cost:       10 + rand.Float64()*40,
			})
			if err != nil {
				logx.Log.Warn().Err(err).Msg("demo task add")
				continue
			}
			pending.Enqueue(t.ID)
		case <-drive.C:
			tick++
			h.allocatePending(pending, inFlight)
			h.settleInFlight(inFlight)
			if tick%signalEvery == 0 && len(workerIDs) > 0 {
				h.sendSignals(workerIDs[rand.Intn(len(workerIDs))])
			}
		}
	}
}

func (h *host) allocatePending(pending *queue.Queue, inFlight map[string]time.Time) {
	for n := pending.Len(); n > 0; n-- {
		taskID := pending.Dequeue().(string)
		_, assigned, err := h.engine.AllocateTask(taskID)
		if err != nil {
			logx.Log.Warn().Err(err).Str("task", taskID).Msg("demo allocate")
			continue
		}
		if !assigned {
			// Nobody qualified; retry on a later tick.
			pending.Enqueue(taskID)
			continue
		}
		inFlight[taskID] = time.Now()
	}
}

// settleInFlight completes assigned tasks after a short simulated run,
// failing a few of them to exercise the trust penalty path.
func (h *host) settleInFlight(inFlight map[string]time.Time) {
	target := h.engine.QualityTarget()
	for taskID, started := range inFlight {
		if time.Since(started) < 2*time.Second {
			continue
		}
		delete(inFlight, taskID)
		if rand.Float64() < 0.05 {
			if err := h.engine.FailTask(taskID, "simulated fault"); err != nil {
				logx.Log.Warn().Err(err).Str("task", taskID).Msg("demo fail")
			}
			continue
		}
		quality := target + (rand.Float64()-0.5)*0.004
		if err := h.engine.CompleteTask(taskID, quality); err != nil {
			logx.Log.Warn().Err(err).Str("task", taskID).Msg("demo complete")
		}
	}
}

func (h *host) sendSignals(workerID string) {
	if rand.Intn(2) == 0 {
		phase := demoPhases[rand.Intn(len(demoPhases))]
		level := rand.Float64() * 12
		if err := h.engine.IntegrateGrowthSignal(workerID, phase, level); err != nil {
			logx.Log.Warn().Err(err).Msg("demo growth signal")
		}
		return
	}
	interaction := demoInteractions[rand.Intn(len(demoInteractions))]
	if err := h.engine.IntegratePopulationSignal(workerID, interaction, rand.Float64()); err != nil {
		logx.Log.Warn().Err(err).Msg("demo population signal")
	}
}
