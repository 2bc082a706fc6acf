package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionStore  string
	SessionSecret string
	JWTSecret     string
	JWTTTL        time.Duration

	GinMode      string
	Port         string
	OpenAIAPIKey string

	EmailHost     string
	EmailPort     int
	EmailSecure   bool
	EmailUser     string
	EmailPassword string
	EmailFrom     string
	ClientURL     string

	LogLevel  string
	LogFormat string
	LogFile   string

	ReportGuard               string
	SchedulerEnabled          bool
	SchedulerReminderInterval time.Duration
	SchedulerWeeklyInterval   time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "taskflow"),
		DBPath:     getEnv("DB_PATH", "taskflow.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionStore:  getEnv("SESSION_STORE", "redis"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:     getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTTTL:        getEnvDuration("JWT_TTL", 7*24*time.Hour),

		GinMode:      getEnv("GIN_MODE", "debug"),
		Port:         getEnv("PORT", "8080"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		EmailHost:     getEnv("EMAIL_HOST", ""),
		EmailPort:     getEnvInt("EMAIL_PORT", 587),
		EmailSecure:   getEnvBool("EMAIL_SECURE", false),
		EmailUser:     getEnv("EMAIL_USER", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", ""),
		ClientURL:     getEnv("CLIENT_URL", "http://localhost:3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		ReportGuard:               getEnv("REPORT_GUARD", "memory"),
		SchedulerEnabled:          getEnvBool("SCHEDULER_ENABLED", false),
		SchedulerReminderInterval: getEnvDuration("SCHEDULER_REMINDER_INTERVAL", 24*time.Hour),
		SchedulerWeeklyInterval:   getEnvDuration("SCHEDULER_WEEKLY_INTERVAL", 7*24*time.Hour),
	}
}

// RedisAddr returns host:port for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.EmailHost != "" && c.EmailUser != ""
}

func getEnv(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
