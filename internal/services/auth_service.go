package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrIncorrectPassword    = errors.New("current password is incorrect")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	changeLogs *ChangeLogService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, changeLogs *ChangeLogService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		changeLogs: changeLogs,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.changeLogs.Record(Actor{ID: user.ID, Role: user.Role, IP: input.IP}, Entry{
		EventType:   models.EventUserLogin,
		TargetType:  models.TargetUser,
		TargetID:    &user.ID,
		Description: fmt.Sprintf("%s logged in", user.Email),
	})

	return user, nil
}

// Logout records the end of a session.
func (s *AuthService) Logout(actor Actor) {
	if actor.IsSystem() {
		return
	}
	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventUserLogout,
		TargetType:  models.TargetUser,
		TargetID:    actor.actorID(),
		Description: "User logged out",
	})
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ChangePassword replaces the password of userID after verifying current.
func (s *AuthService) ChangePassword(userID uint64, current, next string) error {
	if len(next) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}
