package repository

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *GormTaskRepository) assignedTo(userID uint64) *gorm.DB {
	return r.db.Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID).
		Where("task_assignments.deleted_at IS NULL")
}

func (r *GormTaskRepository) filtered(filter TaskFilter) *gorm.DB {
	query := r.db.Model(&models.Task{})

	switch filter.Scope {
	case ScopeTeamOrAssigned:
		if filter.ScopeTeamID != nil {
			query = query.Where("(tasks.team_id = ? OR EXISTS (?))", *filter.ScopeTeamID, r.assignedTo(filter.ScopeUserID))
		} else {
			query = query.Where("EXISTS (?)", r.assignedTo(filter.ScopeUserID))
		}
	case ScopeTeamAndAssigned:
		query = query.Where("EXISTS (?)", r.assignedTo(filter.ScopeUserID))
		if filter.ScopeTeamID != nil {
			query = query.Where("tasks.team_id = ?", *filter.ScopeTeamID)
		} else {
			query = query.Where("tasks.team_id IS NULL")
		}
	}

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.TeamID != nil {
		query = query.Where("tasks.team_id = ?", *filter.TeamID)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("EXISTS (?)", r.assignedTo(*filter.AssignedUserID))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}

	return query.Scopes(database.Search(filter.Search, "tasks.title", "tasks.description"))
}

func ordered(query *gorm.DB, byDueDate bool) *gorm.DB {
	if byDueDate {
		return query.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	}
	return query.Order("tasks.created_at DESC").Order("tasks.id DESC")
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task
	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := ordered(r.filtered(filter), filter.SortByDueDate)
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.
		Preload("Creator").
		Preload("Team").
		Preload("Assignments.User").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListAll retrieves every matching task for analytics
func (r *GormTaskRepository) ListAll(filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	err := ordered(r.filtered(filter), filter.SortByDueDate).
		Preload("Creator").
		Preload("Team").
		Preload("Assignments.User").
		Find(&tasks).Error
	return tasks, err
}

// ListOverdue retrieves unfinished tasks past their due date
func (r *GormTaskRepository) ListOverdue(now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", now).
		Where("tasks.status <> ?", models.TaskStatusDone).
		Order("tasks.due_date ASC").
		Preload("Team").
		Preload("Assignments.User").
		Find(&tasks).Error
	return tasks, err
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AssignUsers assigns multiple users to a task
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now()
	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID:     taskID,
			UserID:     userID,
			AssignedAt: now,
		}
	}

	return r.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL"), "assigned_at": now}),
		}).
		Create(&assignments).Error
}

// UnassignUsers removes user assignments from a task
func (r *GormTaskRepository) UnassignUsers(taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// FindAssignment finds a specific task assignment
func (r *GormTaskRepository) FindAssignment(taskID, userID uint64) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	if err := r.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		Count(&count).Error
	return count, err
}
