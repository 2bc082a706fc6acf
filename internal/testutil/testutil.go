// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain text password of users made by CreateUser.
const TestPassword = "password123"

var passwordHash string

func init() {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	passwordHash = string(hash)
}

// NewTestDB opens a migrated in-memory SQLite database private to t and
// installs it as the default database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	database.SetDB(db)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, name, email string, role models.Role, teamID *uint64) *models.User {
	t.Helper()
	user := &models.User{
		FullName:     name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		TeamID:       teamID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTeam inserts a team.
func CreateTeam(t *testing.T, db *gorm.DB, name string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name}
	require.NoError(t, db.Create(team).Error)
	return team
}

// TaskOption customizes CreateTask.
type TaskOption func(*models.Task)

func WithStatus(s models.TaskStatus) TaskOption {
	return func(t *models.Task) { t.Status = s }
}

func WithPriority(p models.TaskPriority) TaskOption {
	return func(t *models.Task) { t.Priority = p }
}

func WithTeam(teamID uint64) TaskOption {
	return func(t *models.Task) { t.TeamID = &teamID }
}

func WithDue(due time.Time) TaskOption {
	return func(t *models.Task) { t.DueDate = &due }
}

func WithCreatedAt(at time.Time) TaskOption {
	return func(t *models.Task) { t.CreatedAt = at }
}

// CreateTask inserts a task and assigns it to assignees.
func CreateTask(t *testing.T, db *gorm.DB, title string, creatorID uint64, assignees []uint64, opts ...TaskOption) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:     title,
		CreatorID: creatorID,
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
	}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, db.Create(task).Error)

	for _, userID := range assignees {
		require.NoError(t, db.Create(&models.TaskAssignment{TaskID: task.ID, UserID: userID}).Error)
	}
	return task
}

// Uint64 returns a pointer to v.
func Uint64(v uint64) *uint64 { return &v }
