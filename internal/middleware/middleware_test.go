package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	return r
}

func whoami(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		c.Status(http.StatusTeapot)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
}

func TestRequireAuth_Session(t *testing.T) {
	r := newRouter()
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(7))
		session.Set(constants.ContextKeyUserRole, string(models.RoleHR))
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireAuth(nil), whoami)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login := httptest.NewRecorder()
	r.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"hr"}`, w.Body.String())
}

func TestRequireAuth_BearerToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	r := newRouter()
	r.GET("/me", RequireAuth(tokens), whoami)

	token, err := tokens.Issue(&models.User{ID: 42, Role: models.RoleTeamLead})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", tc.header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}

	other := services.NewTokenService("another-secret", time.Hour)
	forged, err := other.Issue(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserRole, models.Role(c.Query("role")))
		c.Next()
	}, RequireRoles(models.RoleAdmin, models.RoleHR), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for role, status := range map[string]int{
		"admin":     http.StatusOK,
		"hr":        http.StatusOK,
		"team_lead": http.StatusForbidden,
		"member":    http.StatusForbidden,
		"":          http.StatusForbidden,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?role="+role, nil))
		assert.Equal(t, status, w.Code, role)
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	for _, v := range []interface{}{uint64(5), uint(5), int(5), int64(5)} {
		c.Set(constants.ContextKeyUserID, v)
		id, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint64(5), id)
	}

	c.Set(constants.ContextKeyUserID, -1)
	_, ok = GetUserID(c)
	assert.False(t, ok)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter()
	r.Use(RequestID(), GinZapMiddleware(zap.New(core)), Recovery(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	errored := logs.FilterMessage("http request").FilterField(zap.Int("status", http.StatusInternalServerError))
	assert.Equal(t, 1, errored.Len())
	assert.Equal(t, zapcore.ErrorLevel, errored.All()[0].Level)
}
