package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	User       UserSummaryDTO `json:"user"`
	AssignedAt time.Time      `json:"assigned_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	CreatorID   uint64              `json:"creator_id"`
	TeamID      *uint64             `json:"team_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Creator     *UserSummaryDTO     `json:"creator,omitempty"`
	Team        *TeamRefDTO         `json:"team,omitempty"`
	Assignments []TaskAssignmentDTO `json:"assignments"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"total_pages"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatorID:   task.CreatorID,
		TeamID:      task.TeamID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Assignments: make([]TaskAssignmentDTO, 0, len(task.Assignments)),
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserSummaryDTO(task.Creator)
		dto.Creator = &creator
	}

	if task.Team != nil {
		dto.Team = &TeamRefDTO{ID: task.Team.ID, Name: task.Team.Name}
	}

	for _, assignment := range task.Assignments {
		dto.Assignments = append(dto.Assignments, TaskAssignmentDTO{
			User:       ToUserSummaryDTO(assignment.User),
			AssignedAt: assignment.AssignedAt,
		})
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, limit int, total int64, totalPages int) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
