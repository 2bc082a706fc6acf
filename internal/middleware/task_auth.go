package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
)

const (
	contextKeyTask = "task"
	contextKeyTeam = "team"
)

// RequireTaskAccess loads the task named by the route parameter and checks
// that the caller can see it. Hidden tasks answer 404 so that their
// existence does not leak.
func RequireTaskAccess(tasks *services.TaskService, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		actor, ok := CurrentActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := tasks.GetTask(actor, taskID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) || errors.Is(err, services.ErrUserNotFound) {
				apierrors.NotFound(c, "Task not found")
				return
			}
			apierrors.InternalError(c, "Failed to load task")
			return
		}

		c.Set(contextKeyTask, task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (*models.Task, bool) {
	v, ok := c.Get(contextKeyTask)
	if !ok {
		return nil, false
	}
	task, ok := v.(*models.Task)
	return task, ok
}

// RequireTeamAccess loads the team named by the route parameter. Admins and
// HR see every team, leads see the team they lead and members their own.
func RequireTeamAccess(teams *services.TeamService) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			return
		}

		actor, ok := CurrentActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		team, err := teams.GetTeam(teamID)
		if err != nil {
			if errors.Is(err, services.ErrTeamNotFound) {
				apierrors.NotFound(c, "Team not found")
				return
			}
			apierrors.InternalError(c, "Failed to load team")
			return
		}
		if !teams.CanView(actor, team) {
			apierrors.Forbidden(c, "You do not have access to this team")
			return
		}

		c.Set(contextKeyTeam, team)
		c.Next()
	}
}

// GetTeam returns the team loaded by RequireTeamAccess.
func GetTeam(c *gin.Context) (*models.Team, bool) {
	v, ok := c.Get(contextKeyTeam)
	if !ok {
		return nil, false
	}
	team, ok := v.(*models.Team)
	return team, ok
}
