package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
)

var (
	ErrCommentEmpty   = errors.New("comment cannot be empty")
	ErrCommentTooLong = fmt.Errorf("comment exceeds %d characters", constants.MaxCommentLength)
)

// CommentService manages task discussion threads.
type CommentService struct {
	repo       repository.CommentRepository
	tasks      *TaskService
	notifier   *NotificationService
	changeLogs *ChangeLogService
}

func NewCommentService(repo repository.CommentRepository, tasks *TaskService, notifier *NotificationService, changeLogs *ChangeLogService) *CommentService {
	return &CommentService{repo: repo, tasks: tasks, notifier: notifier, changeLogs: changeLogs}
}

// List returns the comments of a task visible to actor, oldest first.
func (s *CommentService) List(actor Actor, taskID uint64) ([]models.Comment, error) {
	if _, err := s.tasks.GetTask(actor, taskID); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// Add posts a comment and notifies the task's creator and assignees.
func (s *CommentService) Add(actor Actor, taskID uint64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrCommentEmpty
	}
	if utf8.RuneCountInString(body) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	task, err := s.tasks.GetTask(actor, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{TaskID: task.ID, AuthorID: actor.ID, Body: body}
	if err := s.repo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	recipients := append(task.AssigneeIDs(), task.CreatorID)
	s.notifier.Notify(recipients, actor.ID, models.NotificationTaskComment,
		fmt.Sprintf("New comment on task: %s", task.Title), &task.ID)
	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventCommentAdded,
		TargetType:  models.TargetTask,
		TargetID:    &task.ID,
		Description: fmt.Sprintf("Commented on task %s", task.Title),
	})

	comments, err := s.repo.ListByTask(task.ID)
	if err == nil {
		for i := range comments {
			if comments[i].ID == comment.ID {
				return &comments[i], nil
			}
		}
	}
	return comment, nil
}
