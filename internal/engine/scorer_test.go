package engine

import (
	"math"
	"testing"

	"scoby_collective/internal/domain"
)

func testWorker(id string, role domain.Role, mode domain.Mode) *domain.Worker {
	return &domain.Worker{
		ID:            id,
		Role:          role,
		Mode:          mode,
		CreditBalance: 100.0,
		TrustScore:    1.0,
		Availability:  1.0,
		TaskQueue:     []string{},
	}
}

func TestScoreModeMatch(t *testing.T) {
	modeA := domain.ModeA
	cases := []struct {
		name      string
		mode      domain.Mode
		preferred *domain.Mode
		want      float64
	}{
		{"no preference", domain.ModeB, nil, 1.0},
		{"exact match", domain.ModeA, &modeA, 1.0},
		{"hybrid covers either", domain.ModeC, &modeA, 0.7},
		{"mismatch", domain.ModeB, &modeA, 0.3},
	}
	for _, tc := range cases {
		w := testWorker("w", domain.RoleGeneralist, tc.mode)
		task := &domain.Task{Type: domain.TaskTypeMaintenance, PreferredMode: tc.preferred}
		if got := scoreModeMatch(w, task); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScoreResources(t *testing.T) {
	w := testWorker("w", domain.RoleGeneralist, domain.ModeC)
	if got := scoreResources(w, &domain.Task{Cost: 0}); got != 1.0 {
		t.Fatalf("free task should score 1.0, got %v", got)
	}
	if got := scoreResources(w, &domain.Task{Cost: 50}); got != 1.0 {
		t.Fatalf("affordable task should score 1.0, got %v", got)
	}
	if got := scoreResources(w, &domain.Task{Cost: 200}); got != 0.5 {
		t.Fatalf("expensive task should score balance/cost, got %v", got)
	}
}

func TestScoreSpecialization(t *testing.T) {
	task := &domain.Task{Type: domain.TaskTypeStrategic}
	if got := scoreSpecialization(testWorker("w", domain.RoleStrategic, domain.ModeA), task); got != 1.0 {
		t.Fatalf("specialist should score 1.0, got %v", got)
	}
	if got := scoreSpecialization(testWorker("w", domain.RoleCoordinator, domain.ModeC), task); got != 1.0 {
		t.Fatalf("coordinator matches every type, got %v", got)
	}
	if got := scoreSpecialization(testWorker("w", domain.RoleGeneralist, domain.ModeC), &domain.Task{Type: domain.TaskTypeCrisis}); got != 0.7 {
		t.Fatalf("generalist fallback should score 0.7, got %v", got)
	}
	if got := scoreSpecialization(testWorker("w", domain.RoleOffline, domain.ModeB), task); got != 0.5 {
		t.Fatalf("out-of-specialty should score 0.5, got %v", got)
	}
}

func TestScoreLoad(t *testing.T) {
	w := testWorker("w", domain.RoleGeneralist, domain.ModeC)
	if got := scoreLoad(w); got != 1.0 {
		t.Fatalf("empty queue should score 1.0, got %v", got)
	}
	w.TaskQueue = make([]string, 5)
	if got := scoreLoad(w); got != 0.5 {
		t.Fatalf("half-full queue should score 0.5, got %v", got)
	}
	w.TaskQueue = make([]string, 15)
	if got := scoreLoad(w); got != 0.0 {
		t.Fatalf("overfull queue should bottom out at 0, got %v", got)
	}
}

func TestScoreDeterministicAndBounded(t *testing.T) {
	modeA := domain.ModeA
	w := testWorker("w", domain.RoleResearch, domain.ModeC)
	w.TaskQueue = []string{"a", "b", "c"}
	task := &domain.Task{Type: domain.TaskTypeCreative, Cost: 80, PreferredMode: &modeA}
	first := Score(w, task)
	for i := 0; i < 10; i++ {
		if got := Score(w, task); got != first {
			t.Fatalf("score not deterministic: %v vs %v", got, first)
		}
	}
	if first < 0 || first > 1 {
		t.Fatalf("score outside [0,1]: %v", first)
	}
}

func TestTrustWeightBounds(t *testing.T) {
	phi := (1 + math.Sqrt(5)) / 2
	if got := trustWeight(0.1); got < 1.0 || got > phi {
		t.Fatalf("minimum trust weight out of range: %v", got)
	}
	if got := trustWeight(2.0); !floatNear(got, phi, 1e-9) {
		t.Fatalf("maximum trust should map to phi, got %v", got)
	}
	if got := trustWeight(0.0); got != 1.0 {
		t.Fatalf("zero trust should map to 1.0, got %v", got)
	}
	if trustWeight(0.5) >= trustWeight(1.5) {
		t.Fatalf("trust weight should be monotonic")
	}
}

func TestAllocateTaskTieBreaksByID(t *testing.T) {
	e := newTestEngine(t)
	// Add in reverse order so map iteration cannot mask an ordering bug.
	for _, id := range []string{"w-b", "w-a"} {
		if _, err := e.AddWorker(AddWorkerInput{ID: id, Role: domain.RoleGeneralist}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if _, err := e.AddTask(AddTaskInput{ID: "t1", Type: domain.TaskTypeMaintenance}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	workerID, ok, err := e.AllocateTask("t1")
	if err != nil || !ok {
		t.Fatalf("allocate: ok=%v err=%v", ok, err)
	}
	if workerID != "w-a" {
		t.Fatalf("tie should break toward lower id, got %s", workerID)
	}
}

func TestAllocateTaskPrefersShorterQueueOnTie(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"w-a", "w-b"} {
		if _, err := e.AddWorker(AddWorkerInput{ID: id, Role: domain.RoleGeneralist}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	// w-a takes the first task, so w-b has the shorter queue. A queue of one
	// against ten max depth shifts the weighted score below w-b's.
	for i, want := range []string{"w-a", "w-b"} {
		id := "t" + string(rune('1'+i))
		if _, err := e.AddTask(AddTaskInput{ID: id, Type: domain.TaskTypeMaintenance}); err != nil {
			t.Fatalf("add task: %v", err)
		}
		workerID, ok, err := e.AllocateTask(id)
		if err != nil || !ok {
			t.Fatalf("allocate %s: ok=%v err=%v", id, ok, err)
		}
		if workerID != want {
			t.Fatalf("task %s: expected %s, got %s", id, want, workerID)
		}
	}
}

func TestAllocateTaskSkipsUnavailableWorkers(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddWorker(AddWorkerInput{ID: "w1", Role: domain.RoleGeneralist}); err != nil {
		t.Fatalf("add worker: %v", err)
	}
	avail := 0.05
	if _, err := e.UpdateWorker("w1", UpdateWorkerInput{Availability: &avail}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := e.AddTask(AddTaskInput{ID: "t1", Type: domain.TaskTypeMaintenance}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	workerID, ok, err := e.AllocateTask("t1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if ok || workerID != "" {
		t.Fatalf("unavailable worker should not be chosen: %q %v", workerID, ok)
	}
	task, _ := e.GetTask("t1")
	if task.Status != domain.TaskStatusPending {
		t.Fatalf("task should stay pending, got %s", task.Status)
	}
}

func TestAllocateTaskNonPendingIsNoop(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddWorker(AddWorkerInput{ID: "w1", Role: domain.RoleGeneralist}); err != nil {
		t.Fatalf("add worker: %v", err)
	}
	if _, err := e.AddTask(AddTaskInput{ID: "t1", Type: domain.TaskTypeMaintenance}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, ok, err := e.AllocateTask("t1"); err != nil || !ok {
		t.Fatalf("first allocate: ok=%v err=%v", ok, err)
	}
	workerID, ok, err := e.AllocateTask("t1")
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if ok || workerID != "" {
		t.Fatalf("already-assigned task should be a no-op: %q %v", workerID, ok)
	}
	w, _ := e.GetWorker("w1")
	if len(w.TaskQueue) != 1 {
		t.Fatalf("queue should hold the task exactly once, got %v", w.TaskQueue)
	}
}

func TestAllocateTaskTrustSwingsOutcome(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"w-a", "w-b"} {
		if _, err := e.AddWorker(AddWorkerInput{ID: id, Role: domain.RoleGeneralist}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	// Identical fitness, so w-a would win the ID tie-break. Failing a task on
	// w-a drops its trust and hands the next allocation to w-b.
	if _, err := e.AddTask(AddTaskInput{ID: "seed", Type: domain.TaskTypeMaintenance}); err != nil {
		t.Fatalf("add seed: %v", err)
	}
	if _, ok, err := e.AllocateTask("seed"); err != nil || !ok {
		t.Fatalf("allocate seed: ok=%v err=%v", ok, err)
	}
	if err := e.FailTask("seed", "induced"); err != nil {
		t.Fatalf("fail seed: %v", err)
	}

	if _, err := e.AddTask(AddTaskInput{ID: "t1", Type: domain.TaskTypeMaintenance}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	workerID, ok, err := e.AllocateTask("t1")
	if err != nil || !ok {
		t.Fatalf("allocate: ok=%v err=%v", ok, err)
	}
	if workerID != "w-b" {
		t.Fatalf("higher-trust worker should win despite id order, got %s", workerID)
	}
}
