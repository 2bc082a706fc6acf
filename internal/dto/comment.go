package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

type CommentDTO struct {
	ID        uint64         `json:"id"`
	TaskID    uint64         `json:"task_id"`
	Body      string         `json:"body"`
	Author    UserSummaryDTO `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
}

func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Body:      comment.Body,
		Author:    ToUserSummaryDTO(comment.Author),
		CreatedAt: comment.CreatedAt,
	}
}

func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment)
	}
	return items
}
