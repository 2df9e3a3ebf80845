package engine

import (
	"math"
	"time"

	"scoby_collective/internal/domain"
)

// IntegrateGrowthSignal folds a growth-phase reading from the external
// growth simulator into a worker: the substrate level becomes the
// availability signal and the phase may force an operating mode.
func (e *Engine) IntegrateGrowthSignal(workerID string, phase domain.GrowthPhase, level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.workers.get(workerID)
	if err != nil {
		return err
	}

	w.AvailabilitySignal = math.Min(1.0, level/10.0)
	switch phase {
	case domain.GrowthPhaseGrowth:
		e.setMode(w, domain.ModeA)
	case domain.GrowthPhaseDecline:
		e.setMode(w, domain.ModeB)
	case domain.GrowthPhasePlateau:
		// Plateau settles into hybrid, but a worker already conserving
		// in latency or hybrid mode stays where it is.
		if w.Mode == domain.ModeA {
			e.setMode(w, domain.ModeC)
		}
	}
	w.UpdatedAt = time.Now().UTC()
	e.log.Debug().Str("worker", workerID).Str("phase", string(phase)).Float64("level", level).Msg("growth signal integrated")
	return nil
}

// IntegratePopulationSignal folds a pairwise interaction reading from the
// external population simulator into a worker's availability signal.
func (e *Engine) IntegratePopulationSignal(workerID string, interaction domain.Interaction, share float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.workers.get(workerID)
	if err != nil {
		return err
	}

	switch interaction {
	case domain.InteractionMutualism:
		w.AvailabilitySignal = math.Min(1.0, share*1.2)
	case domain.InteractionCompetition:
		w.AvailabilitySignal = math.Max(0.1, share*0.5)
	case domain.InteractionCommensalism:
		w.AvailabilitySignal = clamp01(share)
	case domain.InteractionAmensalism:
		w.AvailabilitySignal = math.Max(0.2, share*0.7)
	}
	w.InteractionEffects[interaction] = share
	w.UpdatedAt = time.Now().UTC()
	e.log.Debug().Str("worker", workerID).Str("interaction", string(interaction)).Float64("share", share).Msg("population signal integrated")
	return nil
}
