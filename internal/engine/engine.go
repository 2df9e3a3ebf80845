package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scoby_collective/internal/domain"
	"scoby_collective/internal/policy"
)

// DefaultQualityTarget is the 369/370 collective quality standard the
// original system was built around.
const DefaultQualityTarget = 369.0 / 370.0

var (
	ErrDuplicateID          = errors.New("duplicate id")
	ErrNotFound             = errors.New("not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Publisher receives engine state-change events. Publish must not block.
type Publisher interface {
	Publish(ev domain.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.Event) {}

type Config struct {
	// QualityTarget is the collective quality floor, must be in (0, 1).
	QualityTarget float64
	// ModeARatio and ModeBRatio are the rebalance targets; the remainder
	// of the population lands in hybrid mode.
	ModeARatio float64
	ModeBRatio float64
}

func (c Config) withDefaults() Config {
	if c.QualityTarget == 0 {
		c.QualityTarget = DefaultQualityTarget
	}
	if c.ModeARatio == 0 {
		c.ModeARatio = 0.4
	}
	if c.ModeBRatio == 0 {
		c.ModeBRatio = 0.3
	}
	return c
}

// Engine orchestrates a collective of heterogeneous workers. All state is
// in memory and every method runs to completion inside the caller; nothing
// moves unless the host drives it.
type Engine struct {
	cfg Config
	bus Publisher
	log zerolog.Logger

	mu      sync.RWMutex
	workers *workerRegistry
	tasks   *taskStore

	totalCredits   float64
	completedCount int
	failedCount    int
}

func New(cfg Config, bus Publisher, logger zerolog.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.QualityTarget <= 0 || cfg.QualityTarget >= 1 {
		return nil, fmt.Errorf("%w: quality target %v outside (0,1)", ErrInvalidConfiguration, cfg.QualityTarget)
	}
	if cfg.ModeARatio <= 0 || cfg.ModeBRatio <= 0 || cfg.ModeARatio+cfg.ModeBRatio >= 1 {
		return nil, fmt.Errorf("%w: mode ratios %v/%v", ErrInvalidConfiguration, cfg.ModeARatio, cfg.ModeBRatio)
	}
	if bus == nil {
		bus = noopPublisher{}
	}
	return &Engine{
		cfg:     cfg,
		bus:     bus,
		log:     logger,
		workers: newWorkerRegistry(),
		tasks:   newTaskStore(),
	}, nil
}

// QualityTarget returns the configured collective quality floor.
func (e *Engine) QualityTarget() float64 { return e.cfg.QualityTarget }

type AddWorkerInput struct {
	ID   string
	Role domain.Role
	// Mode overrides the role-derived default when set.
	Mode *domain.Mode
}

func (e *Engine) AddWorker(in AddWorkerInput) (domain.Worker, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	mode := policy.DefaultMode(in.Role)
	if in.Mode != nil {
		mode = *in.Mode
	}
	now := time.Now().UTC()
	w := &domain.Worker{
		ID:                 id,
		Role:               in.Role,
		Mode:               mode,
		AvailabilitySignal: 1.0,
		CreditBalance:      100.0,
		Contribution:       1.0,
		TrustScore:         1.0,
		Availability:       1.0,
		Quality:            e.cfg.QualityTarget,
		TaskQueue:          []string{},
		InteractionEffects: make(map[domain.Interaction]float64),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.workers.add(w); err != nil {
		return domain.Worker{}, err
	}
	e.refreshTotalCredits()
	e.log.Debug().Str("worker", id).Str("role", string(in.Role)).Str("mode", string(mode)).Msg("worker added")
	e.bus.Publish(domain.Event{Kind: domain.EventWorkerAdded, WorkerID: id, Detail: string(in.Role), CreatedAt: now})
	return cloneWorker(w), nil
}

// RemoveWorker drops a worker and returns every task still on its queue to
// the pending pool.
func (e *Engine) RemoveWorker(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.workers.remove(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, taskID := range w.TaskQueue {
		t, err := e.tasks.get(taskID)
		if err != nil {
			continue
		}
		t.AssignedWorker = ""
		t.Status = domain.TaskStatusPending
		t.UpdatedAt = now
	}
	e.refreshTotalCredits()
	e.log.Info().Str("worker", id).Int("requeued", len(w.TaskQueue)).Msg("worker removed")
	e.bus.Publish(domain.Event{Kind: domain.EventWorkerRemoved, WorkerID: id, CreatedAt: now})
	return nil
}

type UpdateWorkerInput struct {
	Mode               *domain.Mode
	Availability       *float64
	AvailabilitySignal *float64
	Contribution       *float64
	Quality            *float64
	CreditBalance      *float64
	BacklogDebt        *float64
}

// UpdateWorker applies external readings to a worker. Availability-style
// fields are clamped to [0, 1].
func (e *Engine) UpdateWorker(id string, in UpdateWorkerInput) (domain.Worker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.workers.get(id)
	if err != nil {
		return domain.Worker{}, err
	}
	if in.Mode != nil {
		e.setMode(w, *in.Mode)
	}
	if in.Availability != nil {
		w.Availability = clamp01(*in.Availability)
	}
	if in.AvailabilitySignal != nil {
		w.AvailabilitySignal = clamp01(*in.AvailabilitySignal)
	}
	if in.Contribution != nil {
		w.Contribution = max(0, *in.Contribution)
	}
	if in.Quality != nil {
		w.Quality = clamp01(*in.Quality)
	}
	if in.CreditBalance != nil {
		w.CreditBalance = max(0, *in.CreditBalance)
		e.refreshTotalCredits()
	}
	if in.BacklogDebt != nil {
		w.BacklogDebt = max(0, *in.BacklogDebt)
	}
	w.UpdatedAt = time.Now().UTC()
	e.bus.Publish(domain.Event{Kind: domain.EventWorkerUpdated, WorkerID: id, CreatedAt: w.UpdatedAt})
	return cloneWorker(w), nil
}

func (e *Engine) GetWorker(id string) (domain.Worker, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, err := e.workers.get(id)
	if err != nil {
		return domain.Worker{}, err
	}
	return cloneWorker(w), nil
}

// ListWorkers returns all workers sorted by ID.
func (e *Engine) ListWorkers() []domain.Worker {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Worker, 0, e.workers.count())
	for _, w := range e.workers.list() {
		out = append(out, cloneWorker(w))
	}
	return out
}

type AddTaskInput struct {
	ID            string
	Type          domain.TaskType
	Complexity    float64
	Urgency       float64
	Cost          float64
	Deadline      *time.Time
	PreferredMode *domain.Mode
	// QualityTarget defaults to the engine-wide target when zero.
	QualityTarget float64
}

func (e *Engine) AddTask(in AddTaskInput) (domain.Task, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	target := in.QualityTarget
	if target == 0 {
		target = e.cfg.QualityTarget
	}
	now := time.Now().UTC()
	t := &domain.Task{
		ID:            id,
		Type:          in.Type,
		Complexity:    clamp01(in.Complexity),
		Urgency:       clamp01(in.Urgency),
		Cost:          max(0, in.Cost),
		Deadline:      in.Deadline,
		PreferredMode: in.PreferredMode,
		QualityTarget: target,
		Status:        domain.TaskStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.tasks.add(t); err != nil {
		return domain.Task{}, err
	}
	e.bus.Publish(domain.Event{Kind: domain.EventTaskAdded, TaskID: id, Detail: string(in.Type), CreatedAt: now})
	return *t, nil
}

func (e *Engine) GetTask(id string) (domain.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, err := e.tasks.get(id)
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// ListTasks returns all tasks sorted by ID.
func (e *Engine) ListTasks() []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Task, 0, e.tasks.count())
	for _, t := range e.tasks.list() {
		out = append(out, *t)
	}
	return out
}

// CompleteTask marks a task completed and feeds the delivered quality back
// into the assignee's trust score.
func (e *Engine) CompleteTask(taskID string, deliveredQuality float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.tasks.get(taskID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if t.AssignedWorker != "" {
		if w, err := e.workers.get(t.AssignedWorker); err == nil {
			w.TaskQueue = removeID(w.TaskQueue, taskID)
			ratio := deliveredQuality / t.QualityTarget
			w.TrustScore = clampTrust(w.TrustScore + 0.1*(ratio-1.0))
			w.UpdatedAt = now
		}
	}
	t.Status = domain.TaskStatusCompleted
	t.UpdatedAt = now
	e.completedCount++
	e.log.Debug().Str("task", taskID).Float64("quality", deliveredQuality).Msg("task completed")
	e.bus.Publish(domain.Event{Kind: domain.EventTaskCompleted, TaskID: taskID, WorkerID: t.AssignedWorker, CreatedAt: now})
	return nil
}

// FailTask marks a task failed and applies a fixed trust penalty to the
// assignee (the completion adjustment evaluated at zero delivered quality).
func (e *Engine) FailTask(taskID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.tasks.get(taskID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if t.AssignedWorker != "" {
		if w, err := e.workers.get(t.AssignedWorker); err == nil {
			w.TaskQueue = removeID(w.TaskQueue, taskID)
			w.TrustScore = clampTrust(w.TrustScore - 0.1)
			w.UpdatedAt = now
		}
	}
	t.Status = domain.TaskStatusFailed
	t.UpdatedAt = now
	e.failedCount++
	e.log.Info().Str("task", taskID).Str("reason", reason).Msg("task failed")
	e.bus.Publish(domain.Event{Kind: domain.EventTaskFailed, TaskID: taskID, WorkerID: t.AssignedWorker, Detail: reason, CreatedAt: now})
	return nil
}

// Metrics captures a consistent snapshot of collective state. It never
// mutates anything and only needs the read lock.
func (e *Engine) Metrics() domain.Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	workers := e.workers.list()
	m := domain.Metrics{
		WorkerCount:    len(workers),
		CompletedTasks: e.completedCount,
		FailedTasks:    e.failedCount,
		TotalCredits:   e.totalCredits,
		ModeCounts:     map[domain.Mode]int{},
		ModeQuality:    map[domain.Mode]float64{},
		CapturedAt:     time.Now().UTC(),
	}
	for _, t := range e.tasks.list() {
		switch t.Status {
		case domain.TaskStatusPending:
			m.PendingTasks++
		case domain.TaskStatusAssigned:
			m.AssignedTasks++
		}
	}
	qualitySums := map[domain.Mode]float64{}
	for _, w := range workers {
		m.ModeCounts[w.Mode]++
		qualitySums[w.Mode] += w.Quality
	}
	for mode, n := range m.ModeCounts {
		m.ModeQuality[mode] = qualitySums[mode] / float64(n)
	}
	m.DiversityIndex = diversityIndex(workers)
	m.EmergenceFactor = emergenceFactor(workers)
	m.CollectiveConsciousness = collectiveConsciousness(workers)
	m.CollectiveQuality = collectiveQuality(workers, e.cfg.QualityTarget)
	return m
}

// setMode changes a worker's operating mode. Moving into throughput mode
// clears any backlog debt built up while latency-bound.
func (e *Engine) setMode(w *domain.Worker, mode domain.Mode) {
	if w.Mode != mode && mode == domain.ModeA {
		w.BacklogDebt = 0
	}
	w.Mode = mode
}

func (e *Engine) refreshTotalCredits() {
	total := 0.0
	for _, w := range e.workers.list() {
		total += w.CreditBalance
	}
	e.totalCredits = total
}

func cloneWorker(w *domain.Worker) domain.Worker {
	out := *w
	out.TaskQueue = append([]string{}, w.TaskQueue...)
	out.InteractionEffects = make(map[domain.Interaction]float64, len(w.InteractionEffects))
	for k, v := range w.InteractionEffects {
		out.InteractionEffects[k] = v
	}
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampTrust(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 2.0 {
		return 2.0
	}
	return v
}

func sortWorkersByID(ws []*domain.Worker) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
}
