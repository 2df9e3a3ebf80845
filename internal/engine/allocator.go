package engine

import (
	"fmt"
	"time"

	"scoby_collective/internal/domain"
)

// throughputCreditBonus favors throughput-mode workers when splitting the
// shared credit pool; they carry the collective's resource sharing.
const throughputCreditBonus = 1.2

// Redistribute splits a shared credit pool across all workers by weighted
// contribution and writes the shares back to their balances. The shares
// always sum to the pool (equal split when every weight is zero).
func (e *Engine) Redistribute(totalCredits float64) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	workers := e.workers.list()
	allocation := redistribute(workers, totalCredits)
	for _, w := range workers {
		w.CreditBalance = allocation[w.ID]
	}
	e.refreshTotalCredits()
	if len(allocation) > 0 {
		now := time.Now().UTC()
		e.log.Debug().Float64("pool", totalCredits).Int("workers", len(allocation)).Msg("credits redistributed")
		e.bus.Publish(domain.Event{Kind: domain.EventRedistributed, Detail: fmt.Sprintf("%.1f credits", totalCredits), CreatedAt: now})
	}
	return allocation
}

func redistribute(workers []*domain.Worker, totalCredits float64) map[string]float64 {
	allocation := make(map[string]float64, len(workers))
	if len(workers) == 0 {
		return allocation
	}

	weights := make(map[string]float64, len(workers))
	totalWeight := 0.0
	for _, w := range workers {
		weight := w.Contribution
		if w.Mode == domain.ModeA {
			weight *= throughputCreditBonus
		}
		weight *= w.TrustScore
		weights[w.ID] = weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		share := totalCredits / float64(len(workers))
		for _, w := range workers {
			allocation[w.ID] = share
		}
		return allocation
	}
	for _, w := range workers {
		allocation[w.ID] = totalCredits * weights[w.ID] / totalWeight
	}
	return allocation
}
