package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrFullNameRequired    = errors.New("full name is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidRole         = errors.New("invalid role")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCannotDeleteSelf    = errors.New("you cannot delete your own account")
	ErrAdminCannotJoinTeam = errors.New("admin users cannot belong to a team")
	ErrNotTeamLead         = errors.New("only team leads can list their team members")
)

// UserService manages accounts.
type UserService struct {
	userRepo   repository.UserRepository
	teamRepo   repository.TeamRepository
	mail       mailer.Mailer
	changeLogs *ChangeLogService
	log        *zap.Logger
	clientURL  string
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	mail mailer.Mailer,
	changeLogs *ChangeLogService,
	log *zap.Logger,
	clientURL string,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		teamRepo:   teamRepo,
		mail:       mail,
		changeLogs: changeLogs,
		log:        log,
		clientURL:  clientURL,
	}
}

// CreateUserInput represents input for creating a user. A password is
// generated when Password is empty.
type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	Role     models.Role
	TeamID   *uint64
}

// CreateUserResult carries the new user and how the credentials went out.
type CreateUserResult struct {
	User              *models.User
	GeneratedPassword bool
	EmailSent         bool
}

// CreateUser creates an account and emails its credentials.
func (s *UserService) CreateUser(ctx context.Context, actor Actor, input CreateUserInput) (*CreateUserResult, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	email := models.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if err := s.checkRoleGrant(actor, role); err != nil {
		return nil, err
	}
	if err := s.checkTeam(role, input.TeamID); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	password := input.Password
	generated := password == ""
	if generated {
		password, err = utils.GeneratePassword(constants.GeneratedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
	} else if len(password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TeamID:       input.TeamID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventUserCreated,
		TargetType:  models.TargetUser,
		TargetID:    &user.ID,
		Description: fmt.Sprintf("Created user %s (%s)", user.FullName, user.Email),
		Details:     map[string]interface{}{"role": user.Role},
	})

	sent := s.sendCredentials(ctx, user, password, mailer.CredentialsMessage)
	return &CreateUserResult{User: user, GeneratedPassword: generated, EmailSent: sent}, nil
}

func (s *UserService) sendCredentials(ctx context.Context, user *models.User, password string, build func(mailer.Credentials) (mailer.Message, error)) bool {
	msg, err := build(mailer.Credentials{
		Name:     user.FullName,
		Email:    user.Email,
		Password: password,
		Role:     string(user.Role),
		LoginURL: s.clientURL,
	})
	if err != nil {
		s.log.Error("Failed to render credentials email", zap.Uint64("user_id", user.ID), zap.Error(err))
		return false
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Warn("Failed to deliver credentials email", zap.Uint64("user_id", user.ID), zap.Error(err))
		return false
	}
	return true
}

func (s *UserService) checkRoleGrant(actor Actor, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}

func (s *UserService) checkTeam(role models.Role, teamID *uint64) error {
	if teamID == nil {
		return nil
	}
	if role == models.RoleAdmin {
		return ErrAdminCannotJoinTeam
	}
	if _, err := s.teamRepo.FindByID(*teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}
	return nil
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	Role     *models.Role
	TeamID   *uint64
	Search   string
	Page     int
	PageSize int
}

func (s *UserService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	if input.Role != nil && !input.Role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	users, total, err := s.userRepo.List(repository.UserFilter{
		Role:     input.Role,
		TeamID:   input.TeamID,
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUserInput represents input for updating a user
type UpdateUserInput struct {
	FullName  *string
	Email     *string
	Role      *models.Role
	TeamID    *uint64
	ClearTeam bool
}

func (s *UserService) UpdateUser(actor Actor, id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	// Only admins may edit admins.
	if user.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, ErrPermissionDenied
	}

	changed := map[string]interface{}{}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, ErrFullNameRequired
		}
		if name != user.FullName {
			user.FullName = name
			changed["full_name"] = name
		}
	}
	if input.Email != nil {
		email := models.NormalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		if email != user.Email {
			exists, err := s.userRepo.EmailExists(email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, ErrEmailTaken
			}
			user.Email = email
			changed["email"] = email
		}
	}
	if input.Role != nil && *input.Role != user.Role {
		if err := s.checkRoleGrant(actor, *input.Role); err != nil {
			return nil, err
		}
		user.Role = *input.Role
		changed["role"] = user.Role
	}
	if input.ClearTeam {
		if user.TeamID != nil {
			changed["team_id"] = nil
		}
		user.TeamID = nil
	} else if input.TeamID != nil {
		user.TeamID = input.TeamID
		changed["team_id"] = *input.TeamID
	}
	if err := s.checkTeam(user.Role, user.TeamID); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if len(changed) > 0 {
		s.changeLogs.Record(actor, Entry{
			EventType:   models.EventUserUpdated,
			TargetType:  models.TargetUser,
			TargetID:    &user.ID,
			Description: fmt.Sprintf("Updated user %s", user.Email),
			Details:     changed,
		})
	}
	return user, nil
}

func (s *UserService) DeleteUser(actor Actor, id uint64) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return ErrPermissionDenied
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventUserDeleted,
		TargetType:  models.TargetUser,
		TargetID:    &user.ID,
		Description: fmt.Sprintf("Deleted user %s (%s)", user.FullName, user.Email),
	})
	return nil
}

// ResetPassword assigns a generated password and emails it. The password is
// returned so that it can be shown when email delivery fails.
func (s *UserService) ResetPassword(ctx context.Context, actor Actor, id uint64) (string, bool, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return "", false, err
	}
	if user.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return "", false, ErrPermissionDenied
	}

	password, err := utils.GeneratePassword(constants.GeneratedPasswordLength)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return "", false, err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(user); err != nil {
		return "", false, fmt.Errorf("failed to reset password: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventUserUpdated,
		TargetType:  models.TargetUser,
		TargetID:    &user.ID,
		Description: fmt.Sprintf("Reset password for %s", user.Email),
	})

	sent := s.sendCredentials(ctx, user, password, mailer.PasswordResetMessage)
	return password, sent, nil
}

// TeamMembers lists the members of the acting team lead's team.
func (s *UserService) TeamMembers(actor Actor) ([]models.User, error) {
	if actor.Role != models.RoleTeamLead {
		return nil, ErrNotTeamLead
	}
	lead, err := s.GetUser(actor.ID)
	if err != nil {
		return nil, err
	}
	if lead.TeamID == nil {
		return []models.User{}, nil
	}
	members, err := s.userRepo.ListByTeam(*lead.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

// SeedAdmin creates the initial admin account unless the email is taken.
// It reports whether a user was created.
func (s *UserService) SeedAdmin(fullName, email, password string) (*models.User, bool, error) {
	existing, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	if len(password) < constants.MinPasswordLength {
		return nil, false, ErrPasswordTooShort
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.changeLogs.Record(SystemActor(), Entry{
		EventType:   models.EventUserCreated,
		TargetType:  models.TargetUser,
		TargetID:    &user.ID,
		Description: fmt.Sprintf("Seeded admin %s", user.Email),
	})
	return user, true, nil
}

// CleanupResult reports what CleanupAdmins changed.
type CleanupResult struct {
	AdminsDetached int64
	TeamsRemoved   []string
}

// CleanupAdmins detaches admin users from teams and removes teams that use
// the reserved name.
func (s *UserService) CleanupAdmins() (*CleanupResult, error) {
	detached, err := s.userRepo.ClearTeamForRole(models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to detach admin users: %w", err)
	}

	result := &CleanupResult{AdminsDetached: detached, TeamsRemoved: []string{}}

	// Legacy data may hold several case variants of the name.
	for {
		team, err := s.teamRepo.FindByName(constants.ReservedTeamName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find reserved team: %w", err)
		}

		if err := s.teamRepo.Delete(team.ID); err != nil {
			return nil, fmt.Errorf("failed to delete team %q: %w", team.Name, err)
		}
		result.TeamsRemoved = append(result.TeamsRemoved, team.Name)

		s.changeLogs.Record(SystemActor(), Entry{
			EventType:   models.EventTeamDeleted,
			TargetType:  models.TargetTeam,
			TargetID:    &team.ID,
			Description: fmt.Sprintf("Removed team with reserved name %q", team.Name),
		})
	}
	return result, nil
}
