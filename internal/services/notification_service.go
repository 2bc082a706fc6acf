package services

import (
	"fmt"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
)

// NotificationService manages in-app notifications.
type NotificationService struct {
	repo repository.NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, log: log}
}

// Notify sends message to every user in userIDs except skip. Failures are
// logged and never surface to the caller.
func (s *NotificationService) Notify(userIDs []uint64, skip uint64, typ models.NotificationType, message string, taskID *uint64) {
	if s == nil {
		return
	}

	notifications := make([]models.Notification, 0, len(userIDs))
	for _, id := range uniqueUint64(userIDs) {
		if id == 0 || id == skip {
			continue
		}
		notifications = append(notifications, models.Notification{
			UserID:  id,
			Type:    typ,
			Message: message,
			TaskID:  taskID,
		})
	}

	if err := s.repo.CreateBatch(notifications); err != nil {
		s.log.Error("Failed to create notifications",
			zap.String("type", string(typ)),
			zap.Int("recipients", len(notifications)),
			zap.Error(err))
	}
}

// List returns the newest notifications of a user and their unread count.
func (s *NotificationService) List(userID uint64) ([]models.Notification, int64, error) {
	list, err := s.repo.ListByUser(userID, constants.DefaultNotificationMax)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, unread, nil
}

// MarkRead marks ids as read, or every notification when ids is empty.
func (s *NotificationService) MarkRead(userID uint64, ids []uint64) (int64, error) {
	n, err := s.repo.MarkRead(userID, uniqueUint64(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
