package repository

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListAll retrieves every task matching filter with team, creator and
	// assignees preloaded. Pagination fields are ignored.
	ListAll(filter TaskFilter) ([]models.Task, error)

	// ListOverdue retrieves unfinished tasks whose due date is before now
	ListOverdue(now time.Time) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(taskID uint64, userIDs []uint64) error

	// FindAssignment finds a specific task assignment
	FindAssignment(taskID, userID uint64) (*models.TaskAssignment, error)

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(userIDs []uint64) (int64, error)
}

// TaskScope restricts which tasks a listing may return.
type TaskScope int

const (
	// ScopeAll applies no visibility restriction.
	ScopeAll TaskScope = iota
	// ScopeTeamOrAssigned returns tasks in ScopeTeamID or assigned to ScopeUserID.
	ScopeTeamOrAssigned
	// ScopeTeamAndAssigned returns tasks assigned to ScopeUserID within ScopeTeamID.
	ScopeTeamAndAssigned
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope       TaskScope
	ScopeUserID uint64
	ScopeTeamID *uint64

	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	TeamID         *uint64
	CreatorID      *uint64
	AssignedUserID *uint64
	Search         string
	CreatedFrom    *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)

	// EmailExists reports whether any user, including soft deleted ones,
	// holds the email
	EmailExists(email string) (bool, error)

	// List retrieves users with filtering and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// ListByTeam lists the members of a team
	ListByTeam(teamID uint64) ([]models.User, error)

	// ListByRoles lists users holding any of roles
	ListByRoles(roles ...models.Role) ([]models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete soft deletes a user and drops their task assignments
	Delete(id uint64) error

	// SetTeam moves a user into teamID, or out of any team when nil
	SetTeam(userID uint64, teamID *uint64) error

	// ClearTeamForRole detaches every user with role from their team
	ClearTeamForRole(role models.Role) (int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role     *models.Role
	TeamID   *uint64
	Search   string
	Page     int
	PageSize int
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a new team
	Create(team *models.Team) error

	// FindByID finds a team by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Team, error)

	// FindByName finds a team by name, ignoring case
	FindByName(name string) (*models.Team, error)

	// List lists teams, pinned first, then by priority weight and name
	List() ([]models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// Delete removes a team and detaches its members and tasks
	Delete(id uint64) error
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	ListByTask(taskID uint64) ([]models.Comment, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch stores notifications in a single insert
	CreateBatch(notifications []models.Notification) error

	// ListByUser returns the newest notifications for a user
	ListByUser(userID uint64, limit int) ([]models.Notification, error)

	// CountUnread counts the unread notifications of a user
	CountUnread(userID uint64) (int64, error)

	// MarkRead marks ids as read, or all of the user's notifications when
	// ids is empty
	MarkRead(userID uint64, ids []uint64) (int64, error)
}

// ChangeLogRepository defines the interface for audit trail data access
type ChangeLogRepository interface {
	Create(entry *models.ChangeLog) error

	// List retrieves entries with filtering and pagination, newest first
	List(filter ChangeLogFilter) ([]models.ChangeLog, int64, error)

	// ListAll retrieves every entry matching filter, newest first
	ListAll(filter ChangeLogFilter) ([]models.ChangeLog, error)

	// CountByEventType groups entries by event type, largest first
	CountByEventType() ([]EventTypeCount, error)

	// TopActors returns the users with the most entries
	TopActors(limit int) ([]ActorCount, error)

	// Count counts all entries
	Count() (int64, error)

	// EventTypes lists the distinct event types present
	EventTypes() ([]string, error)

	// DeleteOlderThan removes entries created before cutoff
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// ChangeLogFilter holds filtering options for listing change log entries
type ChangeLogFilter struct {
	EventType  string
	TargetType string
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// EventTypeCount is one row of the per event type breakdown.
type EventTypeCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// ActorCount is one row of the most active users ranking.
type ActorCount struct {
	ActorID  uint64 `json:"actor_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Count    int64  `json:"count"`
}
