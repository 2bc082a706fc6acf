package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// RequireAuth accepts either the session cookie or an
// "Authorization: Bearer <token>" header. Tokens may be nil, in which case
// only sessions are accepted.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" && tokens != nil {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apierrors.Unauthorized(c, "Malformed authorization header")
				return
			}
			claims, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				apierrors.Unauthorized(c, "Invalid or expired token")
				return
			}
			userID, _ := claims.UserID()
			c.Set(constants.ContextKeyUserID, userID)
			c.Set(constants.ContextKeyUserRole, claims.Role)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)
		if userID == nil {
			apierrors.Unauthorized(c, "")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		if role, ok := session.Get(constants.ContextKeyUserRole).(string); ok {
			c.Set(constants.ContextKeyUserRole, models.Role(role))
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetUserRole retrieves the current user's role from context
func GetUserRole(c *gin.Context) models.Role {
	role, exists := c.Get(constants.ContextKeyUserRole)
	if !exists {
		return ""
	}
	switch v := role.(type) {
	case models.Role:
		return v
	case string:
		return models.Role(v)
	default:
		return ""
	}
}

// CurrentActor describes the authenticated caller for the service layer.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok || userID == 0 {
		return services.Actor{}, false
	}
	return services.Actor{ID: userID, Role: GetUserRole(c), IP: c.ClientIP()}, true
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		apierrors.Forbidden(c, "You do not have permission to perform this action")
	}
}
