package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type UserHandler struct {
	users   *services.UserService
	imports *services.BulkImportService
}

func NewUserHandler(users *services.UserService, imports *services.BulkImportService) *UserHandler {
	return &UserHandler{
		users:   users,
		imports: imports,
	}
}

// ListUsers returns a page of users, optionally filtered by role, team and
// a name or email search.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	input := services.ListUsersInput{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.Role(roleStr)
		input.Role = &role
	}
	teamID, ok := parseOptionalID(c, "team_id")
	if !ok {
		return
	}
	input.TeamID = teamID

	users, total, err := h.users.ListUsers(input)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, params.Limit, total, utils.TotalPages(total, params.Limit)))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		FullName string      `json:"full_name" binding:"required,max=255"`
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password"`
		Role     models.Role `json:"role" binding:"omitempty,oneof=admin hr team_lead member"`
		TeamID   *uint64     `json:"team_id"`
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	result, err := h.users.CreateUser(c.Request.Context(), actor, services.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		TeamID:   req.TeamID,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":       dto.ToUserDTO(*result.User),
		"email_sent": result.EmailSent,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	user, err := h.users.GetUser(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser applies a partial update. Sending "team_id": null removes the
// user from their team.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		FullName *string          `json:"full_name" binding:"omitempty,min=1,max=255"`
		Email    *string          `json:"email" binding:"omitempty,email"`
		Role     *models.Role     `json:"role" binding:"omitempty,oneof=admin hr team_lead member"`
		TeamID   nullable[uint64] `json:"team_id"`
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := parseIDParam(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	user, err := h.users.UpdateUser(actor, userID, services.UpdateUserInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      req.Role,
		TeamID:    req.TeamID.Value,
		ClearTeam: req.TeamID.Set && req.TeamID.Value == nil,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := parseIDParam(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(actor, userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ResetPassword assigns a new generated password. The password is only
// echoed back when the email could not be delivered.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := parseIDParam(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	password, sent, err := h.users.ResetPassword(c.Request.Context(), actor, userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	resp := gin.H{
		"message":    "Password reset successfully",
		"email_sent": sent,
	}
	if !sent {
		resp["password"] = password
	}
	c.JSON(http.StatusOK, resp)
}

// TeamMembers lists the members of the calling team lead's team.
func (h *UserHandler) TeamMembers(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	members, err := h.users.TeamMembers(actor)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(members)})
}

func (h *UserHandler) ImportTemplate(c *gin.Context) {
	data, err := h.imports.Template()
	if err != nil {
		apierrors.InternalError(c, "Failed to build template")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.ImportTemplateName+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// BulkImport creates users from an uploaded workbook in the "file" form
// field.
func (h *UserHandler) BulkImport(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "An xlsx file is required in the \"file\" field")
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.imports.Import(c.Request.Context(), actor, file)
	if err != nil {
		respondImportError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
