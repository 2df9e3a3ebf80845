package engine

import (
	"math"

	"scoby_collective/internal/domain"
)

// Collective quality weights per mode. Throughput workers dominate the
// average so the 369/370 standard holds while latency workers absorb
// acceptable degradation. The metrics snapshot reports per-mode means
// alongside, so that degradation stays observable.
const (
	qualityWeightModeA = 10.0
	qualityWeightModeB = 0.1
	qualityWeightModeC = 1.0
)

// Emergence bonuses: up to 20% for mode diversity, 10% per mutualistic
// pair, 10% scaled by log10 population growth.
const (
	diversityBonus = 0.2
	synergyBonus   = 0.1
	networkBonus   = 0.1
)

// diversityIndex is the Shannon entropy of the mode distribution,
// normalized by ln(3) so a single-mode population scores 0 and a perfectly
// even spread scores 1.
func diversityIndex(workers []*domain.Worker) float64 {
	total := len(workers)
	if total == 0 {
		return 0
	}
	counts := map[domain.Mode]int{}
	for _, w := range workers {
		counts[w.Mode]++
	}
	entropy := 0.0
	for _, mode := range domain.Modes() {
		if counts[mode] == 0 {
			continue
		}
		p := float64(counts[mode]) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(len(domain.Modes())))
}

// mutualisticPairs counts worker pairs sharing resources: C(k, 2) over the
// k throughput-mode workers.
func mutualisticPairs(workers []*domain.Worker) int {
	k := 0
	for _, w := range workers {
		if w.Mode == domain.ModeA {
			k++
		}
	}
	if k < 2 {
		return 0
	}
	return k * (k - 1) / 2
}

// emergenceFactor is the super-additive multiplier on collective output.
// Always >= 1.0, exactly 1.0 for an empty population.
func emergenceFactor(workers []*domain.Worker) float64 {
	n := len(workers)
	if n == 0 {
		return 1.0
	}
	diversity := 1.0 + diversityIndex(workers)*diversityBonus
	synergy := 1.0 + float64(mutualisticPairs(workers))*synergyBonus
	network := 1.0 + networkBonus*math.Log(float64(n)+1)/math.Log(10)
	return diversity * synergy * network
}

// collectiveConsciousness is the emergence-amplified sum of individual
// contributions.
func collectiveConsciousness(workers []*domain.Worker) float64 {
	if len(workers) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range workers {
		sum += w.Contribution
	}
	return sum * emergenceFactor(workers)
}

// collectiveQuality is the mode-weighted mean of worker quality readings,
// floored at the configured target when the population or weight sum is
// empty.
func collectiveQuality(workers []*domain.Worker, target float64) float64 {
	if len(workers) == 0 {
		return target
	}
	totalQuality, totalWeight := 0.0, 0.0
	for _, w := range workers {
		var weight float64
		switch w.Mode {
		case domain.ModeA:
			weight = qualityWeightModeA
		case domain.ModeB:
			weight = qualityWeightModeB
		default:
			weight = qualityWeightModeC
		}
		totalQuality += w.Quality * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return target
	}
	return totalQuality / totalWeight
}
