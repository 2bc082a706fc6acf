package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) ListComments(c *gin.Context) {
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

	comments, err := h.comments.List(actor, task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(comments)})
}

func (h *CommentHandler) AddComment(c *gin.Context) {
	type AddCommentRequest struct {
		Body string `json:"body" binding:"required"`
	}

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

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	comment, err := h.comments.Add(actor, task.ID, req.Body)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}
