package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

type TeamHandler struct {
	teams *services.TeamService
}

func NewTeamHandler(teams *services.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

type teamRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=255,notreserved"`
	HRID           *uint64 `json:"hr_id"`
	LeadID         *uint64 `json:"lead_id"`
	IsPinned       *bool   `json:"is_pinned"`
	PriorityWeight *int    `json:"priority_weight"`
}

func (r teamRequest) input() services.TeamInput {
	return services.TeamInput{
		Name:           r.Name,
		HRID:           r.HRID,
		LeadID:         r.LeadID,
		IsPinned:       r.IsPinned,
		PriorityWeight: r.PriorityWeight,
	}
}

// ListTeams returns pinned teams first, then by priority weight and name.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.teams.ListTeams()
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": dto.ToTeamDTOs(teams)})
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	team, err := h.teams.CreateTeam(actor, req.input())
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// GetTeam returns the team loaded by RequireTeamAccess.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	teamID, ok := parseIDParam(c, "id", "Invalid team ID")
	if !ok {
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	team, err := h.teams.UpdateTeam(actor, teamID, req.input())
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	teamID, ok := parseIDParam(c, "id", "Invalid team ID")
	if !ok {
		return
	}

	if err := h.teams.DeleteTeam(actor, teamID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully"})
}

func (h *TeamHandler) AddMember(c *gin.Context) {
	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	teamID, ok := parseIDParam(c, "id", "Invalid team ID")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	team, err := h.teams.AddMember(actor, teamID, req.UserID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	teamID, ok := parseIDParam(c, "id", "Invalid team ID")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id", "Invalid user ID")
	if !ok {
		return
	}

	team, err := h.teams.RemoveMember(actor, teamID, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}
