package repository

import (
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.Create(&notifications).Error
}

func (r *GormNotificationRepository) ListByUser(userID uint64, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&notifications).Error
	return notifications, err
}

func (r *GormNotificationRepository) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *GormNotificationRepository) MarkRead(userID uint64, ids []uint64) (int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Update("is_read", true)
	return result.RowsAffected, result.Error
}
