package policy

import (
	"scoby_collective/internal/domain"
)

// roleTaskTypes is the fixed role → compatible task-type table. The
// coordinator role is handled separately: it matches every task type.
var roleTaskTypes = map[domain.Role][]domain.TaskType{
	domain.RoleStrategic:      {domain.TaskTypeStrategic},
	domain.RoleResearch:       {domain.TaskTypeResearch},
	domain.RoleQuality:        {domain.TaskTypeQuality},
	domain.RoleCrisisResponse: {domain.TaskTypeCrisis},
	domain.RoleOffline:        {domain.TaskTypeCrisis},
	domain.RoleRapidIteration: {domain.TaskTypeCreative},
	domain.RoleGeneralist: {
		domain.TaskTypeMaintenance,
		domain.TaskTypeStrategic,
		domain.TaskTypeResearch,
	},
}

// Specializes reports whether a role is in the preferred-role set for a
// task type.
func Specializes(role domain.Role, taskType domain.TaskType) bool {
	if role == domain.RoleCoordinator {
		return true
	}
	for _, t := range roleTaskTypes[role] {
		if t == taskType {
			return true
		}
	}
	return false
}

// DefaultMode maps a role to its starting operating mode. Strategic-leaning
// roles start in throughput mode, crisis-leaning roles in latency mode,
// everything else hybrid.
func DefaultMode(role domain.Role) domain.Mode {
	switch role {
	case domain.RoleStrategic, domain.RoleResearch, domain.RoleQuality:
		return domain.ModeA
	case domain.RoleCrisisResponse, domain.RoleOffline, domain.RoleRapidIteration:
		return domain.ModeB
	default:
		return domain.ModeC
	}
}

// Roles lists all worker roles in canonical order.
func Roles() []domain.Role {
	return []domain.Role{
		domain.RoleStrategic,
		domain.RoleResearch,
		domain.RoleQuality,
		domain.RoleCrisisResponse,
		domain.RoleOffline,
		domain.RoleRapidIteration,
		domain.RoleGeneralist,
		domain.RoleCoordinator,
	}
}
