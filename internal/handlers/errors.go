package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/services"
)

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrIncorrectPassword):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrNotTeamLead):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrFullNameRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrAdminCannotJoinTeam):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrImportEmpty),
		errors.Is(err, services.ErrImportTooLarge),
		errors.Is(err, services.ErrImportFormat):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Failed to import users")
	}
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTeamNameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotTeamManager):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrReservedTeamName),
		errors.Is(err, services.ErrInvalidTeamHR),
		errors.Is(err, services.ErrInvalidTeamLead),
		errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrAdminCannotJoinTeam):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrCommentEmpty),
		errors.Is(err, services.ErrCommentTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reports.ErrGenerationInProgress):
		apierrors.ReportInProgress(c)
	case errors.Is(err, reports.ErrUnknownFormat),
		errors.Is(err, analytics.ErrUnknownPeriod),
		errors.Is(err, services.ErrUnknownChart):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Failed to generate report")
	}
}
