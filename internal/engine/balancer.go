package engine

import (
	"fmt"
	"sort"
	"time"

	"scoby_collective/internal/domain"
)

// highSignalThreshold is the availability signal a worker needs before the
// balancer will put it into throughput mode.
const highSignalThreshold = 0.5

// Rebalance reassigns every worker's operating mode toward the target
// 40/30/30 split. Workers with the strongest availability signal fill the
// throughput quota first; the latency quota fills next; everyone left runs
// hybrid. Returns the new mode per worker ID.
func (e *Engine) Rebalance() map[string]domain.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()

	workers := e.workers.list()
	newModes := rebalanceModes(workers, e.cfg.ModeARatio, e.cfg.ModeBRatio)
	for id, mode := range newModes {
		if w, err := e.workers.get(id); err == nil {
			e.setMode(w, mode)
		}
	}
	if len(newModes) > 0 {
		now := time.Now().UTC()
		e.log.Debug().Int("workers", len(newModes)).Msg("modes rebalanced")
		e.bus.Publish(domain.Event{Kind: domain.EventRebalanced, Detail: fmt.Sprintf("%d workers", len(newModes)), CreatedAt: now})
	}
	return newModes
}

// rebalanceModes computes the target mode per worker without mutating
// anything. Quotas use integer truncation; the remainder folds into hybrid.
func rebalanceModes(workers []*domain.Worker, aRatio, bRatio float64) map[string]domain.Mode {
	n := len(workers)
	if n == 0 {
		return map[string]domain.Mode{}
	}
	targetA := int(float64(n) * aRatio)
	targetB := int(float64(n) * bRatio)

	sorted := make([]*domain.Worker, len(workers))
	copy(sorted, workers)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AvailabilitySignal != sorted[j].AvailabilitySignal {
			return sorted[i].AvailabilitySignal > sorted[j].AvailabilitySignal
		}
		return sorted[i].ID < sorted[j].ID
	})

	newModes := make(map[string]domain.Mode, n)
	countA, countB := 0, 0
	for _, w := range sorted {
		switch {
		case countA < targetA && w.AvailabilitySignal > highSignalThreshold:
			newModes[w.ID] = domain.ModeA
			countA++
		case countB < targetB:
			newModes[w.ID] = domain.ModeB
			countB++
		default:
			newModes[w.ID] = domain.ModeC
		}
	}
	return newModes
}
