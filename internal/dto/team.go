package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TeamRefDTO is the compact team form embedded in tasks
type TeamRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID             uint64           `json:"id"`
	Name           string           `json:"name"`
	HRID           *uint64          `json:"hr_id"`
	LeadID         *uint64          `json:"lead_id"`
	IsPinned       bool             `json:"is_pinned"`
	PriorityWeight int              `json:"priority_weight"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	HR             *UserSummaryDTO  `json:"hr,omitempty"`
	Lead           *UserSummaryDTO  `json:"lead,omitempty"`
	Members        []UserSummaryDTO `json:"members,omitempty"`
}

// ToTeamDTO converts a Team model to TeamDTO. Relations are included when
// preloaded.
func ToTeamDTO(team models.Team) TeamDTO {
	dto := TeamDTO{
		ID:             team.ID,
		Name:           team.Name,
		HRID:           team.HRID,
		LeadID:         team.LeadID,
		IsPinned:       team.IsPinned,
		PriorityWeight: team.PriorityWeight,
		CreatedAt:      team.CreatedAt,
		UpdatedAt:      team.UpdatedAt,
	}

	if team.HR != nil {
		hr := ToUserSummaryDTO(*team.HR)
		dto.HR = &hr
	}
	if team.Lead != nil {
		lead := ToUserSummaryDTO(*team.Lead)
		dto.Lead = &lead
	}
	if len(team.Members) > 0 {
		dto.Members = make([]UserSummaryDTO, len(team.Members))
		for i, member := range team.Members {
			dto.Members[i] = ToUserSummaryDTO(member)
		}
	}

	return dto
}

func ToTeamDTOs(teams []models.Team) []TeamDTO {
	items := make([]TeamDTO, len(teams))
	for i, team := range teams {
		items[i] = ToTeamDTO(team)
	}
	return items
}
