package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// UserSummaryDTO is the compact user form embedded in other resources
type UserSummaryDTO struct {
	ID       uint64      `json:"id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64      `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TeamID    *uint64     `json:"team_id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO `json:"users"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"total_pages"`
}

func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		TeamID:    user.TeamID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}

func ToUserListResponse(users []models.User, page, limit int, total int64, totalPages int) UserListResponse {
	return UserListResponse{
		Users:      ToUserDTOs(users),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
