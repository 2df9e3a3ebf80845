package engine

import (
	"errors"
	"testing"

	"scoby_collective/internal/domain"
)

func TestIntegrateGrowthSignalPhases(t *testing.T) {
	cases := []struct {
		name      string
		startMode domain.Mode
		phase     domain.GrowthPhase
		level     float64
		wantMode  domain.Mode
		wantSig   float64
	}{
		{"growth forces throughput", domain.ModeC, domain.GrowthPhaseGrowth, 8, domain.ModeA, 0.8},
		{"decline forces latency", domain.ModeA, domain.GrowthPhaseDecline, 2, domain.ModeB, 0.2},
		{"plateau settles throughput into hybrid", domain.ModeA, domain.GrowthPhasePlateau, 5, domain.ModeC, 0.5},
		{"plateau leaves latency alone", domain.ModeB, domain.GrowthPhasePlateau, 5, domain.ModeB, 0.5},
		{"plateau leaves hybrid alone", domain.ModeC, domain.GrowthPhasePlateau, 5, domain.ModeC, 0.5},
		{"level saturates at one", domain.ModeC, domain.GrowthPhaseGrowth, 25, domain.ModeA, 1.0},
		{"startup keeps current mode", domain.ModeB, domain.GrowthPhaseStartup, 3, domain.ModeB, 0.3},
	}
	for _, tc := range cases {
		e := newTestEngine(t)
		mode := tc.startMode
		if _, err := e.AddWorker(AddWorkerInput{ID: "w1", Role: domain.RoleGeneralist, Mode: &mode}); err != nil {
			t.Fatalf("%s: add worker: %v", tc.name, err)
		}
		if err := e.IntegrateGrowthSignal("w1", tc.phase, tc.level); err != nil {
			t.Fatalf("%s: integrate: %v", tc.name, err)
		}
		w, err := e.GetWorker("w1")
		if err != nil {
			t.Fatalf("%s: get: %v", tc.name, err)
		}
		if w.Mode != tc.wantMode {
			t.Fatalf("%s: mode %s, want %s", tc.name, w.Mode, tc.wantMode)
		}
		if !floatNear(w.AvailabilitySignal, tc.wantSig, 1e-9) {
			t.Fatalf("%s: signal %v, want %v", tc.name, w.AvailabilitySignal, tc.wantSig)
		}
	}
}

func TestIntegrateGrowthSignalClearsDebtOnThroughput(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddWorker(AddWorkerInput{ID: "w1", Role: domain.RoleCrisisResponse}); err != nil {
		t.Fatalf("add worker: %v", err)
	}
	debt := 7.0
	if _, err := e.UpdateWorker("w1", UpdateWorkerInput{BacklogDebt: &debt}); err != nil {
		t.Fatalf("set debt: %v", err)
	}
	if err := e.IntegrateGrowthSignal("w1", domain.GrowthPhaseGrowth, 9); err != nil {
		t.Fatalf("integrate: %v", err)
	}
	w, _ := e.GetWorker("w1")
	if w.BacklogDebt != 0 {
		t.Fatalf("growth phase moves into throughput and should clear debt, got %v", w.BacklogDebt)
	}
}

func TestIntegratePopulationSignalMappings(t *testing.T) {
	cases := []struct {
		name        string
		interaction domain.Interaction
		share       float64
		want        float64
	}{
		{"mutualism boosts", domain.InteractionMutualism, 0.5, 0.6},
		{"mutualism saturates", domain.InteractionMutualism, 0.9, 1.0},
		{"competition halves", domain.InteractionCompetition, 0.8, 0.4},
		{"competition floors", domain.InteractionCompetition, 0.1, 0.1},
		{"commensalism passes through", domain.InteractionCommensalism, 0.45, 0.45},
		{"commensalism clamps", domain.InteractionCommensalism, 1.4, 1.0},
		{"amensalism dampens", domain.InteractionAmensalism, 0.9, 0.63},
		{"amensalism floors", domain.InteractionAmensalism, 0.1, 0.2},
	}
	for _, tc := range cases {
		e := newTestEngine(t)
		if _, err := e.AddWorker(AddWorkerInput{ID: "w1", Role: domain.RoleGeneralist}); err != nil {
			t.Fatalf("%s: add worker: %v", tc.name, err)
		}
		if err := e.IntegratePopulationSignal("w1", tc.interaction, tc.share); err != nil {
			t.Fatalf("%s: integrate: %v", tc.name, err)
		}
		w, err := e.GetWorker("w1")
		if err != nil {
			t.Fatalf("%s: get: %v", tc.name, err)
		}
		if !floatNear(w.AvailabilitySignal, tc.want, 1e-9) {
			t.Fatalf("%s: signal %v, want %v", tc.name, w.AvailabilitySignal, tc.want)
		}
		if got := w.InteractionEffects[tc.interaction]; !floatNear(got, tc.share, 1e-9) {
			t.Fatalf("%s: interaction effect %v not recorded, got %v", tc.name, tc.share, got)
		}
	}
}

func TestIntegrateSignalsUnknownWorker(t *testing.T) {
	e := newTestEngine(t)
	if err := e.IntegrateGrowthSignal("missing", domain.GrowthPhaseGrowth, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := e.IntegratePopulationSignal("missing", domain.InteractionMutualism, 0.5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
