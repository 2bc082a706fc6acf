package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *services.TokenService
	guard  *reports.MemoryGuard
	mail   *mailer.Recorder
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	mail := &mailer.Recorder{}
	guard := reports.NewMemoryGuard()

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	changeLogs := services.NewChangeLogService(repository.NewChangeLogRepository(db), log)
	notifier := services.NewNotificationService(repository.NewNotificationRepository(db), log)
	users := services.NewUserService(userRepo, teamRepo, mail, changeLogs, log, "http://localhost:3000")
	tasks := services.NewTaskService(repository.NewTaskRepository(db), userRepo, teamRepo, nil, notifier, changeLogs)
	tokens := services.NewTokenService("test-secret", time.Hour)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	RegisterRoutes(r, Services{
		DB:            db,
		Auth:          services.NewAuthService(userRepo, changeLogs),
		Tokens:        tokens,
		Users:         users,
		Imports:       services.NewBulkImportService(users, teamRepo, changeLogs),
		Teams:         services.NewTeamService(teamRepo, userRepo, changeLogs, notifier),
		Tasks:         tasks,
		Comments:      services.NewCommentService(repository.NewCommentRepository(db), tasks, notifier, changeLogs),
		Notifications: notifier,
		ChangeLogs:    changeLogs,
		Reports:       services.NewReportService(tasks, users, reports.NewGenerator(), guard, changeLogs, log),
	})

	return &testEnv{
		db:     db,
		router: r,
		tokens: tokens,
		guard:  guard,
		mail:   mail,
	}
}

// request sends a JSON request authenticated as user with a bearer token.
// A nil user sends the request anonymously.
func (e *testEnv) request(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := e.tokens.Issue(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field string `json:"field"`
		Rule  string `json:"rule"`
	} `json:"details"`
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	var body errorBody
	decode(t, w, &body)
	require.Equal(t, code, body.Code)
	return body
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
