package repository

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormChangeLogRepository is a GORM implementation of ChangeLogRepository
type GormChangeLogRepository struct {
	db *gorm.DB
}

// NewChangeLogRepository creates a new ChangeLogRepository
func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &GormChangeLogRepository{db: db}
}

func (r *GormChangeLogRepository) Create(entry *models.ChangeLog) error {
	return r.db.Omit("Actor").Create(entry).Error
}

func (r *GormChangeLogRepository) filtered(filter ChangeLogFilter) *gorm.DB {
	query := r.db.Model(&models.ChangeLog{})
	if filter.EventType != "" {
		query = query.Where("change_logs.event_type = ?", filter.EventType)
	}
	if filter.TargetType != "" {
		query = query.Where("change_logs.target_type = ?", filter.TargetType)
	}
	if filter.StartDate != nil {
		query = query.Where("change_logs.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("change_logs.created_at <= ?", *filter.EndDate)
	}
	return query.Scopes(database.Search(filter.Search, "change_logs.description", "change_logs.event_type"))
}

// List retrieves entries with filtering and pagination
func (r *GormChangeLogRepository) List(filter ChangeLogFilter) ([]models.ChangeLog, int64, error) {
	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.filtered(filter).Preload("Actor").
		Order("change_logs.created_at DESC").
		Order("change_logs.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.ChangeLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormChangeLogRepository) ListAll(filter ChangeLogFilter) ([]models.ChangeLog, error) {
	var entries []models.ChangeLog
	err := r.filtered(filter).Preload("Actor").
		Order("change_logs.created_at DESC").
		Order("change_logs.id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *GormChangeLogRepository) CountByEventType() ([]EventTypeCount, error) {
	var rows []EventTypeCount
	err := r.db.Model(&models.ChangeLog{}).
		Select("event_type, COUNT(*) AS count").
		Group("event_type").
		Order("count DESC").
		Order("event_type ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *GormChangeLogRepository) TopActors(limit int) ([]ActorCount, error) {
	var rows []ActorCount
	err := r.db.Model(&models.ChangeLog{}).
		Select("change_logs.actor_id, users.full_name, users.email, COUNT(*) AS count").
		Joins("JOIN users ON users.id = change_logs.actor_id").
		Where("change_logs.actor_id IS NOT NULL").
		Group("change_logs.actor_id, users.full_name, users.email").
		Order("count DESC").
		Order("change_logs.actor_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *GormChangeLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ChangeLog{}).Count(&count).Error
	return count, err
}

func (r *GormChangeLogRepository) EventTypes() ([]string, error) {
	var types []string
	err := r.db.Model(&models.ChangeLog{}).
		Distinct("event_type").
		Order("event_type ASC").
		Pluck("event_type", &types).Error
	return types, err
}

// DeleteOlderThan removes entries created before cutoff
func (r *GormChangeLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.ChangeLog{})
	return result.RowsAffected, result.Error
}
