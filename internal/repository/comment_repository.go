package repository

import (
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit("Author").Create(comment).Error
}

// ListByTask returns a task's comments, oldest first
func (r *GormCommentRepository) ListByTask(taskID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("task_id = ?", taskID).
		Preload("Author").
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}
