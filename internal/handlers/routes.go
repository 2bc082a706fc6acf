package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"gorm.io/gorm"
)

// Services are the dependencies of the HTTP layer.
type Services struct {
	DB            *gorm.DB
	Auth          *services.AuthService
	Tokens        *services.TokenService
	Users         *services.UserService
	Imports       *services.BulkImportService
	Teams         *services.TeamService
	Tasks         *services.TaskService
	Comments      *services.CommentService
	Notifications *services.NotificationService
	ChangeLogs    *services.ChangeLogService
	Reports       *services.ReportService
}

// RegisterRoutes mounts the API on r. Session middleware must already be
// installed.
func RegisterRoutes(r gin.IRouter, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.Tokens)
	userHandler := NewUserHandler(s.Users, s.Imports)
	teamHandler := NewTeamHandler(s.Teams)
	taskHandler := NewTaskHandler(s.Tasks)
	commentHandler := NewCommentHandler(s.Comments)
	notificationHandler := NewNotificationHandler(s.Notifications)
	changeLogHandler := NewChangeLogHandler(s.ChangeLogs)
	reportHandler := NewReportHandler(s.Reports)
	healthHandler := NewHealthHandler(s.DB)

	requireAuth := middleware.RequireAuth(s.Tokens)
	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleHR)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		// Auth routes (registration is disabled)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.PATCH("/password", requireAuth, authHandler.ChangePassword)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/team-members", middleware.RequireRoles(models.RoleTeamLead), userHandler.TeamMembers)
			users.GET("/bulk-import/template", managers, userHandler.ImportTemplate)
			users.POST("/bulk-import", managers, userHandler.BulkImport)
			users.GET("", managers, userHandler.ListUsers)
			users.POST("", managers, userHandler.CreateUser)
			users.GET("/:id", managers, userHandler.GetUser)
			users.PATCH("/:id", managers, userHandler.UpdateUser)
			users.DELETE("/:id", managers, userHandler.DeleteUser)
			users.POST("/:id/reset-password", managers, userHandler.ResetPassword)
		}

		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.GET("", teamHandler.ListTeams)
			teams.POST("", managers, teamHandler.CreateTeam)
			teams.GET("/:id", middleware.RequireTeamAccess(s.Teams), teamHandler.GetTeam)
			teams.PATCH("/:id", managers, teamHandler.UpdateTeam)
			teams.DELETE("/:id", managers, teamHandler.DeleteTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.DELETE("/:id/members/:user_id", teamHandler.RemoveMember)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			taskAccess := middleware.RequireTaskAccess(s.Tasks, "id")
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
			tasks.POST("/:id/assign", taskAccess, taskHandler.AssignTask)
			tasks.POST("/:id/unassign", taskAccess, taskHandler.UnassignTask)
		}

		comments := api.Group("/comments")
		comments.Use(requireAuth)
		{
			commentAccess := middleware.RequireTaskAccess(s.Tasks, "taskId")
			comments.GET("/:taskId/comments", commentAccess, commentHandler.ListComments)
			comments.POST("/:taskId/comments", commentAccess, commentHandler.AddComment)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PATCH("/mark-read", notificationHandler.MarkRead)
		}

		changelog := api.Group("/changelog")
		changelog.Use(requireAuth, middleware.RequireRoles(models.RoleAdmin))
		{
			changelog.GET("", changeLogHandler.ListChangeLogs)
			changelog.GET("/stats", changeLogHandler.Stats)
			changelog.GET("/event-types", changeLogHandler.EventTypes)
			changelog.GET("/export", changeLogHandler.Export)
			changelog.DELETE("/clear", changeLogHandler.Clear)
		}

		analyticsGroup := api.Group("/analytics")
		analyticsGroup.Use(requireAuth)
		{
			analyticsGroup.GET("", reportHandler.Analytics)
			analyticsGroup.GET("/charts/status.png", reportHandler.Chart(services.ChartStatus))
			analyticsGroup.GET("/charts/priority.png", reportHandler.Chart(services.ChartPriority))
		}

		api.GET("/reports/download", requireAuth, reportHandler.Download)
	}
}
