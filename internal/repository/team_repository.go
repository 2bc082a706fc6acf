package repository

import (
	"strings"

	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(team *models.Team) error {
	return r.db.Create(team).Error
}

// FindByID finds a team by ID with optional preloading
func (r *GormTeamRepository) FindByID(id uint64, preload ...string) (*models.Team, error) {
	var team models.Team
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByName finds a team by name, ignoring case and surrounding spaces
func (r *GormTeamRepository) FindByName(name string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// List lists teams in display order
func (r *GormTeamRepository) List() ([]models.Team, error) {
	var teams []models.Team
	err := r.db.
		Preload("HR").
		Preload("Lead").
		Order("is_pinned DESC").
		Order("priority_weight DESC").
		Order("name ASC").
		Find(&teams).Error
	return teams, err
}

// Update updates a team
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Omit("HR", "Lead", "Members").Save(team).Error
}

// Delete removes a team permanently so its name can be reused
func (r *GormTeamRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&models.Team{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
