package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/config"
)

func useTestConfig(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "taskflow.db")

	prev := loadConfig
	loadConfig = func() *config.Config {
		return &config.Config{
			DBDriver:      "sqlite",
			DBPath:        dbPath,
			SessionStore:  "cookie",
			SessionSecret: "test-session-secret",
			JWTSecret:     "test-jwt-secret",
			JWTTTL:        time.Hour,
			GinMode:       "test",
			ClientURL:     "http://localhost:3000",
			LogLevel:      "error",
			LogFormat:     "json",
			ReportGuard:   "memory",
		}
	}
	t.Cleanup(func() { loadConfig = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	useTestConfig(t)

	out, err := run(t, "seed-admin", "--email", "root@example.com", "--password", "Sup3rSecret!", "--name", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin root@example.com")

	out, err = run(t, "seed-admin", "--email", "root@example.com", "--password", "Sup3rSecret!", "--name", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestSeedAdmin_EnvFallback(t *testing.T) {
	useTestConfig(t)
	seedFullName, seedEmail, seedPassword = "", "", ""
	t.Setenv("ADMIN_EMAIL", "env-admin@example.com")

	out, err := run(t, "seed-admin")
	require.NoError(t, err)
	assert.Contains(t, out, "env-admin@example.com")
}

func TestCleanupAdmins_NothingToDo(t *testing.T) {
	useTestConfig(t)

	out, err := run(t, "cleanup-admins")
	require.NoError(t, err)
	assert.Contains(t, out, "Admins detached from teams: 0")
	assert.Contains(t, out, "none")
}

func TestReport_WritesFile(t *testing.T) {
	useTestConfig(t)
	path := filepath.Join(t.TempDir(), "report.pdf")

	out, err := run(t, "report", "--period", "weekly", "--format", "pdf", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestReport_RejectsUnknownFlags(t *testing.T) {
	useTestConfig(t)

	_, err := run(t, "report", "--period", "yearly", "--format", "xlsx", "--out", filepath.Join(t.TempDir(), "r.xlsx"))
	assert.Error(t, err)

	_, err = run(t, "report", "--period", "all", "--format", "docx", "--out", filepath.Join(t.TempDir(), "r.docx"))
	assert.Error(t, err)
}

func TestAutomationCommands(t *testing.T) {
	useTestConfig(t)

	out, err := run(t, "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "Overdue tasks: 0")

	out, err = run(t, "weekly-report")
	require.NoError(t, err)
	assert.Contains(t, out, "no recipients")

	_, err = run(t, "seed-admin", "--email", "boss@example.com", "--password", "Sup3rSecret!", "--name", "Boss")
	require.NoError(t, err)

	out, err = run(t, "weekly-report")
	require.NoError(t, err)
	assert.Contains(t, out, "to 1 recipients")
}
