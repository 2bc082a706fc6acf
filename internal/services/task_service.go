package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidTaskPriority    = errors.New("invalid task priority")
	ErrInvalidTaskAssignee    = errors.New("one or more users do not exist")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

var taskPreloads = []string{"Creator", "Team", "Assignments", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo   repository.TaskRepository
	userRepo   repository.UserRepository
	teamRepo   repository.TeamRepository
	aiService  *AIService
	notifier   *NotificationService
	changeLogs *ChangeLogService
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	aiService *AIService,
	notifier *NotificationService,
	changeLogs *ChangeLogService,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		teamRepo:   teamRepo,
		aiService:  aiService,
		notifier:   notifier,
		changeLogs: changeLogs,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	TeamID        *uint64
	AssignedToMe  bool
	Search        string
	SortByDueDate bool
	Page          int
	PageSize      int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	TeamID      *uint64
	AssigneeIDs []uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	TeamID       *uint64
	ClearTeam    bool
}

// scope builds the visibility restriction for actor:
// admins and HR see everything, team leads see their team plus their own
// assignments, members see their own assignments within their team.
func (s *TaskService) scope(actor Actor) (repository.TaskFilter, error) {
	if actor.IsSystem() {
		return repository.TaskFilter{Scope: repository.ScopeAll}, nil
	}

	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.TaskFilter{}, ErrUserNotFound
		}
		return repository.TaskFilter{}, fmt.Errorf("failed to find user: %w", err)
	}

	filter := repository.TaskFilter{ScopeUserID: user.ID, ScopeTeamID: user.TeamID}
	switch user.Role {
	case models.RoleAdmin, models.RoleHR:
		filter.Scope = repository.ScopeAll
	case models.RoleTeamLead:
		filter.Scope = repository.ScopeTeamOrAssigned
	default:
		filter.Scope = repository.ScopeTeamAndAssigned
	}
	return filter, nil
}

// ListTasks returns the page of tasks visible to actor
func (s *TaskService) ListTasks(actor Actor, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidTaskStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidTaskPriority
	}

	filter, err := s.scope(actor)
	if err != nil {
		return nil, 0, err
	}
	filter.Status = input.Status
	filter.Priority = input.Priority
	filter.TeamID = input.TeamID
	filter.Search = input.Search
	filter.SortByDueDate = input.SortByDueDate
	filter.Page = input.Page
	filter.PageSize = input.PageSize
	if input.AssignedToMe {
		filter.AssignedUserID = &actor.ID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// VisibleTasks loads every task visible to actor with team, creator and
// assignees, the input of analytics and reports.
func (s *TaskService) VisibleTasks(actor Actor) ([]models.Task, error) {
	filter, err := s.scope(actor)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListAll(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// OverdueTasks loads every overdue task with assignees.
func (s *TaskService) OverdueTasks(now time.Time) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListOverdue(now)
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue tasks: %w", err)
	}
	return tasks, nil
}

// CanView reports whether task is visible to actor. It mirrors the scope
// applied by the repository when listing.
func (s *TaskService) CanView(actor Actor, task *models.Task) (bool, error) {
	filter, err := s.scope(actor)
	if err != nil {
		return false, err
	}

	assigned := task.IsAssignedTo(actor.ID)
	inTeam := filter.ScopeTeamID != nil && task.TeamID != nil && *filter.ScopeTeamID == *task.TeamID

	switch filter.Scope {
	case repository.ScopeAll:
		return true, nil
	case repository.ScopeTeamOrAssigned:
		return inTeam || assigned, nil
	default:
		sameTeam := inTeam || (filter.ScopeTeamID == nil && task.TeamID == nil)
		return assigned && sameTeam, nil
	}
}

func (s *TaskService) findTask(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetTask returns a task with related data. Tasks the actor cannot see are
// reported as not found.
func (s *TaskService) GetTask(actor Actor, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanView(actor, task)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// canManage reports whether actor may edit every field of task, delete it
// and change its assignees.
func (s *TaskService) canManage(actor Actor, task *models.Task) bool {
	switch {
	case actor.CanManageUsers():
		return true
	case task.CreatorID == actor.ID:
		return true
	case actor.Role == models.RoleTeamLead && task.TeamID != nil:
		lead, err := s.userRepo.FindByID(actor.ID)
		return err == nil && lead.TeamID != nil && *lead.TeamID == *task.TeamID
	}
	return false
}

func (s *TaskService) checkTeam(teamID *uint64) error {
	if teamID == nil {
		return nil
	}
	if _, err := s.teamRepo.FindByID(*teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}
	return nil
}

func (s *TaskService) checkAssignees(userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	count, err := s.taskRepo.CountUsersByIDs(userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

// CreateTask creates a new task. Without explicit assignees the creator is
// assigned, and without a team the creator's team is used.
func (s *TaskService) CreateTask(actor Actor, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	creator, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	teamID := input.TeamID
	if teamID == nil && creator.Role != models.RoleAdmin {
		teamID = creator.TeamID
	}
	if err := s.checkTeam(teamID); err != nil {
		return nil, err
	}

	assignees := uniqueUint64(input.AssigneeIDs)
	if len(assignees) == 0 {
		assignees = []uint64{actor.ID}
	}
	if err := s.checkAssignees(assignees); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		TeamID:      teamID,
		CreatorID:   actor.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.taskRepo.AssignUsers(task.ID, assignees); err != nil {
		return nil, fmt.Errorf("failed to assign users to task: %w", err)
	}

	s.notifier.Notify(assignees, actor.ID, models.NotificationTaskAssigned,
		fmt.Sprintf("You have been assigned to task: %s", task.Title), &task.ID)
	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTaskCreated,
		TargetType:  models.TargetTask,
		TargetID:    &task.ID,
		Description: fmt.Sprintf("Created task %s", task.Title),
		Details: map[string]interface{}{
			"status":    task.Status,
			"priority":  task.Priority,
			"assignees": assignees,
		},
	})

	return s.findTask(task.ID, taskPreloads...)
}

// UpdateTask updates an existing task. Assignees who cannot manage the task
// may only change its status.
func (s *TaskService) UpdateTask(actor Actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(actor, taskID)
	if err != nil {
		return nil, err
	}

	if !s.canManage(actor, task) {
		statusOnly := input.Title == nil && input.Description == nil && input.Priority == nil &&
			input.DueDate == nil && !input.ClearDueDate && input.TeamID == nil && !input.ClearTeam
		if !statusOnly || !task.IsAssignedTo(actor.ID) {
			return nil, ErrTaskPermissionDenied
		}
	}

	changes := map[string]interface{}{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		if title != task.Title {
			changes["title"] = title
		}
		task.Title = title
	}
	if input.Description != nil {
		if *input.Description != task.Description {
			changes["description"] = true
		}
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		if *input.Status != task.Status {
			changes["status"] = map[string]interface{}{"from": task.Status, "to": *input.Status}
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		if *input.Priority != task.Priority {
			changes["priority"] = map[string]interface{}{"from": task.Priority, "to": *input.Priority}
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		if task.DueDate != nil {
			changes["due_date"] = nil
		}
		task.DueDate = nil
	} else if input.DueDate != nil {
		changes["due_date"] = input.DueDate
		task.DueDate = input.DueDate
	}
	if input.ClearTeam {
		task.TeamID = nil
		changes["team_id"] = nil
	} else if input.TeamID != nil {
		if err := s.checkTeam(input.TeamID); err != nil {
			return nil, err
		}
		task.TeamID = input.TeamID
		changes["team_id"] = *input.TeamID
	}
	task.Team = nil

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if len(changes) > 0 {
		recipients := append(task.AssigneeIDs(), task.CreatorID)
		s.notifier.Notify(recipients, actor.ID, models.NotificationTaskUpdated,
			fmt.Sprintf("Task updated: %s", task.Title), &task.ID)
		s.changeLogs.Record(actor, Entry{
			EventType:   models.EventTaskUpdated,
			TargetType:  models.TargetTask,
			TargetID:    &task.ID,
			Description: fmt.Sprintf("Updated task %s", task.Title),
			Details:     changes,
		})
	}

	return s.findTask(task.ID, taskPreloads...)
}

// DeleteTask deletes a task the actor manages
func (s *TaskService) DeleteTask(actor Actor, taskID uint64) error {
	task, err := s.GetTask(actor, taskID)
	if err != nil {
		return err
	}

	if !s.canManage(actor, task) {
		return ErrTaskPermissionDenied
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTaskDeleted,
		TargetType:  models.TargetTask,
		TargetID:    &task.ID,
		Description: fmt.Sprintf("Deleted task %s", task.Title),
	})
	return nil
}

// AssignUsers assigns multiple users to a task with validation
func (s *TaskService) AssignUsers(actor Actor, taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.GetTask(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, task) {
		return nil, ErrTaskPermissionDenied
	}

	ids := uniqueUint64(userIDs)
	if err := s.checkAssignees(ids); err != nil {
		return nil, err
	}

	newcomers := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !task.IsAssignedTo(id) {
			newcomers = append(newcomers, id)
		}
	}

	if err := s.taskRepo.AssignUsers(task.ID, ids); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	s.notifier.Notify(newcomers, actor.ID, models.NotificationTaskAssigned,
		fmt.Sprintf("You have been assigned to task: %s", task.Title), &task.ID)
	if len(newcomers) > 0 {
		s.changeLogs.Record(actor, Entry{
			EventType:   models.EventTaskUpdated,
			TargetType:  models.TargetTask,
			TargetID:    &task.ID,
			Description: fmt.Sprintf("Assigned users to task %s", task.Title),
			Details:     map[string]interface{}{"assigned": newcomers},
		})
	}

	return s.findTask(task.ID, taskPreloads...)
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(actor Actor, taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.GetTask(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, task) {
		return nil, ErrTaskPermissionDenied
	}

	ids := uniqueUint64(userIDs)
	if err := s.taskRepo.UnassignUsers(task.ID, ids); err != nil {
		return nil, fmt.Errorf("failed to unassign users: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTaskUpdated,
		TargetType:  models.TargetTask,
		TargetID:    &task.ID,
		Description: fmt.Sprintf("Unassigned users from task %s", task.Title),
		Details:     map[string]interface{}{"unassigned": ids},
	})

	return s.findTask(task.ID, taskPreloads...)
}

// GenerateTasks uses AI to draft tasks from text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}
