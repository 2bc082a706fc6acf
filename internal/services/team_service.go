package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameRequired = errors.New("team name is required")
	ErrReservedTeamName = errors.New(`"Admin" is a reserved name and cannot be used for teams`)
	ErrTeamNameTaken    = errors.New("a team with this name already exists")
	ErrInvalidTeamHR    = errors.New("team HR must be an existing HR user")
	ErrInvalidTeamLead  = errors.New("team lead must be an existing team lead user")
	ErrNotTeamManager   = errors.New("only admins, HR or the team lead can manage this team")
	ErrNotTeamMember    = errors.New("user is not a member of this team")
)

// IsReservedTeamName reports whether name is reserved, ignoring case and
// surrounding whitespace.
func IsReservedTeamName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), constants.ReservedTeamName)
}

// TeamService manages teams and their membership.
type TeamService struct {
	teamRepo   repository.TeamRepository
	userRepo   repository.UserRepository
	changeLogs *ChangeLogService
	notifier   *NotificationService
}

func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, changeLogs *ChangeLogService, notifier *NotificationService) *TeamService {
	return &TeamService{
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		changeLogs: changeLogs,
		notifier:   notifier,
	}
}

// TeamInput holds the writable fields of a team. Nil fields are left
// unchanged on update.
type TeamInput struct {
	Name           *string
	HRID           *uint64
	LeadID         *uint64
	IsPinned       *bool
	PriorityWeight *int
}

func (s *TeamService) ListTeams() ([]models.Team, error) {
	teams, err := s.teamRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team with HR, lead and members loaded.
func (s *TeamService) GetTeam(id uint64) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(id, "HR", "Lead", "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

// CanManage reports whether actor may change the membership of team.
func (s *TeamService) CanManage(actor Actor, team *models.Team) bool {
	if actor.CanManageUsers() {
		return true
	}
	return actor.Role == models.RoleTeamLead && team.LeadID != nil && *team.LeadID == actor.ID
}

// CanView reports whether actor may see team details.
func (s *TeamService) CanView(actor Actor, team *models.Team) bool {
	if s.CanManage(actor, team) {
		return true
	}
	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		return false
	}
	return user.TeamID != nil && *user.TeamID == team.ID
}

func (s *TeamService) validateName(name string, selfID uint64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrTeamNameRequired
	}
	if IsReservedTeamName(name) {
		return "", ErrReservedTeamName
	}

	existing, err := s.teamRepo.FindByName(name)
	switch {
	case err == nil && existing.ID != selfID:
		return "", ErrTeamNameTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("failed to check team name: %w", err)
	}
	return name, nil
}

func (s *TeamService) checkUserRole(id uint64, want models.Role, invalid error) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.Role != want {
		return invalid
	}
	return nil
}

func (s *TeamService) CreateTeam(actor Actor, input TeamInput) (*models.Team, error) {
	if input.Name == nil {
		return nil, ErrTeamNameRequired
	}
	name, err := s.validateName(*input.Name, 0)
	if err != nil {
		return nil, err
	}

	team := &models.Team{Name: name}
	if err := s.apply(team, input); err != nil {
		return nil, err
	}

	if err := s.teamRepo.Create(team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := s.joinLead(team); err != nil {
		return nil, err
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTeamCreated,
		TargetType:  models.TargetTeam,
		TargetID:    &team.ID,
		Description: fmt.Sprintf("Created team %s", team.Name),
	})
	return s.GetTeam(team.ID)
}

func (s *TeamService) UpdateTeam(actor Actor, id uint64, input TeamInput) (*models.Team, error) {
	team, err := s.GetTeam(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := s.validateName(*input.Name, team.ID)
		if err != nil {
			return nil, err
		}
		team.Name = name
	}
	if err := s.apply(team, input); err != nil {
		return nil, err
	}

	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if err := s.joinLead(team); err != nil {
		return nil, err
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTeamUpdated,
		TargetType:  models.TargetTeam,
		TargetID:    &team.ID,
		Description: fmt.Sprintf("Updated team %s", team.Name),
	})
	return s.GetTeam(team.ID)
}

func (s *TeamService) apply(team *models.Team, input TeamInput) error {
	if input.HRID != nil {
		if err := s.checkUserRole(*input.HRID, models.RoleHR, ErrInvalidTeamHR); err != nil {
			return err
		}
		team.HRID = input.HRID
		team.HR = nil
	}
	if input.LeadID != nil {
		if err := s.checkUserRole(*input.LeadID, models.RoleTeamLead, ErrInvalidTeamLead); err != nil {
			return err
		}
		team.LeadID = input.LeadID
		team.Lead = nil
	}
	if input.IsPinned != nil {
		team.IsPinned = *input.IsPinned
	}
	if input.PriorityWeight != nil {
		team.PriorityWeight = *input.PriorityWeight
	}
	return nil
}

// joinLead makes the team lead a member of the team they lead.
func (s *TeamService) joinLead(team *models.Team) error {
	if team.LeadID == nil {
		return nil
	}
	if err := s.userRepo.SetTeam(*team.LeadID, &team.ID); err != nil {
		return fmt.Errorf("failed to add lead to team: %w", err)
	}
	return nil
}

func (s *TeamService) DeleteTeam(actor Actor, id uint64) error {
	team, err := s.GetTeam(id)
	if err != nil {
		return err
	}
	if err := s.teamRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTeamDeleted,
		TargetType:  models.TargetTeam,
		TargetID:    &team.ID,
		Description: fmt.Sprintf("Deleted team %s", team.Name),
	})
	return nil
}

func (s *TeamService) AddMember(actor Actor, teamID, userID uint64) (*models.Team, error) {
	team, err := s.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, team) {
		return nil, ErrNotTeamManager
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminCannotJoinTeam
	}

	if err := s.userRepo.SetTeam(userID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.notifier.Notify([]uint64{userID}, actor.ID, models.NotificationAccountUpdate,
		fmt.Sprintf("You were added to team %s", team.Name), nil)
	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTeamUpdated,
		TargetType:  models.TargetTeam,
		TargetID:    &team.ID,
		Description: fmt.Sprintf("Added %s to team %s", user.Email, team.Name),
		Details:     map[string]interface{}{"user_id": userID},
	})
	return s.GetTeam(team.ID)
}

func (s *TeamService) RemoveMember(actor Actor, teamID, userID uint64) (*models.Team, error) {
	team, err := s.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, team) {
		return nil, ErrNotTeamManager
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.TeamID == nil || *user.TeamID != team.ID {
		return nil, ErrNotTeamMember
	}

	if err := s.userRepo.SetTeam(userID, nil); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventTeamUpdated,
		TargetType:  models.TargetTeam,
		TargetID:    &team.ID,
		Description: fmt.Sprintf("Removed %s from team %s", user.Email, team.Name),
		Details:     map[string]interface{}{"user_id": userID},
	})
	return s.GetTeam(team.ID)
}
