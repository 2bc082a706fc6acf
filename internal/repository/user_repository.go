package repository

import (
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists checks the email against live and soft deleted users
func (r *GormUserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) filtered(filter UserFilter) *gorm.DB {
	query := r.db.Model(&models.User{})
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	return query.Scopes(database.Search(filter.Search, "full_name", "email"))
}

// List retrieves users with filtering and pagination
func (r *GormUserRepository) List(filter UserFilter) ([]models.User, int64, error) {
	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.filtered(filter).Order("full_name ASC").Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var users []models.User
	if err := listQuery.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListByTeam lists the members of a team
func (r *GormUserRepository) ListByTeam(teamID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("team_id = ?", teamID).Order("full_name ASC").Find(&users).Error
	return users, err
}

// ListByRoles lists users holding any of roles
func (r *GormUserRepository) ListByRoles(roles ...models.Role) ([]models.User, error) {
	var users []models.User
	if len(roles) == 0 {
		return users, nil
	}
	err := r.db.Where("role IN ?", roles).Order("id ASC").Find(&users).Error
	return users, err
}

// Update updates a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

// SetTeam moves a user into a team
func (r *GormUserRepository) SetTeam(userID uint64, teamID *uint64) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("team_id", teamID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearTeamForRole detaches every user with role from their team
func (r *GormUserRepository) ClearTeamForRole(role models.Role) (int64, error) {
	result := r.db.Model(&models.User{}).
		Where("role = ? AND team_id IS NOT NULL", role).
		Update("team_id", nil)
	return result.RowsAffected, result.Error
}
