package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "taskflow_session"
)

// Password policy
const (
	MinPasswordLength       = 6
	GeneratedPasswordLength = 12
)

// Pagination
const (
	MinPageSize            = 1
	DefaultPageSize        = 20
	MaxPageSize            = 100
	DefaultChangeLogLimit  = 50
	DefaultChangeLogMaxAge = 90
)

// Domain limits
const (
	ReservedTeamName       = "admin"
	MaxAIGeneratedTasks    = 20
	MaxBulkImportRows      = 500
	DefaultNotificationMax = 50
	MaxCommentLength       = 5000
)
