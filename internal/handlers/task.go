package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the current user.
// Can filter by status, priority, team_id, assigned_to_me and search.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		AssignedToMe:  queryBool(c, "assigned_to_me"),
		Search:        strings.TrimSpace(c.Query("search")),
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          params.Page,
		PageSize:      params.Limit,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := models.TaskPriority(priorityStr)
		input.Priority = &priority
	}
	teamID, ok := parseOptionalID(c, "team_id")
	if !ok {
		return
	}
	input.TeamID = teamID

	tasks, total, err := h.taskService.ListTasks(actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total, utils.TotalPages(total, params.Limit)))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,max=255"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		TeamID      *uint64             `json:"team_id"`
		AssigneeIDs []uint64            `json:"assignee_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	task, err := h.taskService.CreateTask(actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		TeamID:      req.TeamID,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Sending null for due_date or team_id
// clears the field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,max=255"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     nullable[time.Time]  `json:"due_date"`
		TeamID      nullable[uint64]     `json:"team_id"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	updated, err := h.taskService.UpdateTask(actor, task.ID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate.Value,
		ClearDueDate: req.DueDate.Set && req.DueDate.Value == nil,
		TeamID:       req.TeamID.Value,
		ClearTeam:    req.TeamID.Set && req.TeamID.Value == nil,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(*updated)})
}

// DeleteTask soft deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(actor, task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

type assignmentRequest struct {
	UserIDs []uint64 `json:"user_ids" binding:"required,min=1"`
}

// AssignTask assigns users to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	h.changeAssignees(c, h.taskService.AssignUsers)
}

// UnassignTask removes users from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	h.changeAssignees(c, h.taskService.UnassignUsers)
}

func (h *TaskHandler) changeAssignees(c *gin.Context, apply func(services.Actor, uint64, []uint64) (*models.Task, error)) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	updated, err := apply(actor, task.ID, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// GenerateTasks drafts tasks from free text with AI. The drafts are
// returned for review and are not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,min=1,max=10000"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
		"count": len(drafts),
	})
}
