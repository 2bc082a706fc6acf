package services

import "github.com/yukikurage/taskflow-api/internal/models"

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uint64
	Role models.Role
	IP   string
}

// SystemActor is used by background jobs and the admin CLI. It sees every
// task and is recorded without a user in the change log.
func SystemActor() Actor {
	return Actor{Role: models.RoleAdmin}
}

// IsSystem reports whether the actor is not a real user.
func (a Actor) IsSystem() bool {
	return a.ID == 0
}

// CanManageUsers reports whether the actor may administer accounts and teams.
func (a Actor) CanManageUsers() bool {
	return a.Role.CanManageUsers()
}

func (a Actor) actorID() *uint64 {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
