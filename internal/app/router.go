package app

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/middleware"
)

const sessionMaxAge = 86400 * 7 // 7 days

// NewRouter builds the HTTP engine with logging, sessions and every route.
func (a *App) NewRouter() (*gin.Engine, error) {
	gin.SetMode(a.Config.GinMode)

	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	store, err := a.sessionStore()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.GinZapMiddleware(a.Log))
	r.Use(middleware.Recovery(a.Log))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, a.Services)
	return r, nil
}

// sessionStore returns the Redis backed store, or a cookie store when
// SESSION_STORE=cookie.
func (a *App) sessionStore() (sessions.Store, error) {
	cfg := a.Config
	options := sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode, // HTTPS only in production
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.SessionStore == "cookie" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr(),
		"", // username (empty for default user)
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis session store: %w", err)
	}
	store.Options(options)
	return store, nil
}
