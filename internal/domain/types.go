package domain

import (
	"time"
)

// Role classifies a worker by the kind of work it specializes in.
// Roles are fixed at creation; only the operating mode moves.
type Role string

const (
	RoleStrategic      Role = "strategic"
	RoleResearch       Role = "research"
	RoleQuality        Role = "quality"
	RoleCrisisResponse Role = "crisis_response"
	RoleOffline        Role = "offline"
	RoleRapidIteration Role = "rapid_iteration"
	RoleGeneralist     Role = "generalist"
	RoleCoordinator    Role = "coordinator"
)

// Mode is a worker's operating regime. ModeA optimizes for throughput,
// ModeB for latency, ModeC runs a hybrid of both.
type Mode string

const (
	ModeA Mode = "throughput"
	ModeB Mode = "latency"
	ModeC Mode = "hybrid"
)

// Modes lists all operating modes in canonical order.
func Modes() []Mode { return []Mode{ModeA, ModeB, ModeC} }

type TaskType string

const (
	TaskTypeStrategic   TaskType = "strategic"
	TaskTypeResearch    TaskType = "research"
	TaskTypeCrisis      TaskType = "crisis"
	TaskTypeQuality     TaskType = "quality"
	TaskTypeCreative    TaskType = "creative"
	TaskTypeMaintenance TaskType = "maintenance"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// GrowthPhase is the coarse resource trajectory reported by the external
// growth simulator.
type GrowthPhase string

const (
	GrowthPhaseStartup GrowthPhase = "startup"
	GrowthPhaseGrowth  GrowthPhase = "growth"
	GrowthPhasePlateau GrowthPhase = "plateau"
	GrowthPhaseDecline GrowthPhase = "decline"
)

// Interaction is a pairwise classification reported by the external
// population simulator.
type Interaction string

const (
	InteractionMutualism    Interaction = "mutualism"
	InteractionCompetition  Interaction = "competition"
	InteractionCommensalism Interaction = "commensalism"
	InteractionAmensalism   Interaction = "amensalism"
)

// Worker is a schedulable unit of capacity. Task linkage is by ID only;
// the owning engine maps resolve both directions.
type Worker struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Mode Mode   `json:"mode"`

	AvailabilitySignal float64 `json:"availability_signal"`
	BacklogDebt        float64 `json:"backlog_debt"`
	CreditBalance      float64 `json:"credit_balance"`
	Contribution       float64 `json:"contribution"`
	TrustScore         float64 `json:"trust_score"`
	Availability       float64 `json:"availability"`
	Quality            float64 `json:"quality"`

	TaskQueue []string `json:"task_queue"`

	// InteractionEffects holds the most recent share observed per
	// interaction kind. Allocated per worker at construction.
	InteractionEffects map[Interaction]float64 `json:"interaction_effects"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Task struct {
	ID            string     `json:"id"`
	Type          TaskType   `json:"type"`
	Complexity    float64    `json:"complexity"`
	Urgency       float64    `json:"urgency"`
	Cost          float64    `json:"cost"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	PreferredMode *Mode      `json:"preferred_mode,omitempty"`
	QualityTarget float64    `json:"quality_target"`

	AssignedWorker string     `json:"assigned_worker,omitempty"`
	Status         TaskStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metrics is a read-only snapshot of collective state.
type Metrics struct {
	WorkerCount    int     `json:"worker_count"`
	PendingTasks   int     `json:"pending_tasks"`
	AssignedTasks  int     `json:"assigned_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	FailedTasks    int     `json:"failed_tasks"`
	TotalCredits   float64 `json:"total_credits"`

	CollectiveConsciousness float64 `json:"collective_consciousness"`
	EmergenceFactor         float64 `json:"emergence_factor"`
	DiversityIndex          float64 `json:"diversity_index"`
	CollectiveQuality       float64 `json:"collective_quality"`

	ModeCounts map[Mode]int `json:"mode_counts"`

	// ModeQuality is the unweighted mean quality per mode. The collective
	// quality average weights ModeA heavily, so this is the honest view of
	// what ModeB workers are actually delivering.
	ModeQuality map[Mode]float64 `json:"mode_quality"`

	CapturedAt time.Time `json:"captured_at"`
}

type EventKind string

const (
	EventWorkerAdded   EventKind = "worker_added"
	EventWorkerRemoved EventKind = "worker_removed"
	EventWorkerUpdated EventKind = "worker_updated"
	EventTaskAdded     EventKind = "task_added"
	EventTaskAssigned  EventKind = "task_assigned"
	EventTaskCompleted EventKind = "task_completed"
	EventTaskFailed    EventKind = "task_failed"
	EventRebalanced    EventKind = "rebalanced"
	EventRedistributed EventKind = "redistributed"
)

// Event is a single engine state change, published on the inproc bus and
// drained into the journal by the host.
type Event struct {
	Kind      EventKind `json:"kind"`
	WorkerID  string    `json:"worker_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
