package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Jira      JiraConfig
	GitLab    GitLabConfig
	AWS       AWSConfig
	Alerts    AlertConfig
	Scheduler SchedulerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// JiraConfig holds issue-tracker API credentials and query bounds.
type JiraConfig struct {
	BaseURL        string
	Username       string
	APIToken       string
	ProjectKeys    []string
	BoardID        string
	MaxResults     int
	TimeoutSeconds int
}

// GitLabConfig holds source-control API credentials and project scope.
type GitLabConfig struct {
	BaseURL        string
	APIToken       string
	ProjectIDs     []string
	TimeoutSeconds int
}

// AWSConfig holds cloud metrics collection settings.
type AWSConfig struct {
	Region        string
	PeriodSeconds int32
}

// AlertConfig carries the threshold values the alert engine evaluates.
type AlertConfig struct {
	VelocityDropPercent float64
	AfterHoursPercent   float64
	WeekendCommits      int
	CPUPercent          float64
	MemoryPercent       float64
	ErrorRatePercent    float64
}

// SchedulerConfig carries cron specs and incremental lookback windows per
// collector.
type SchedulerConfig struct {
	Enabled             bool
	TicketsSpec         string
	TicketsLookbackMin  int
	SprintsSpec         string
	CommitsSpec         string
	CommitsLookbackMin  int
	InfraSpec           string
	InfraLookbackMin    int
	CostSpec            string
	CostLookbackDays    int
	AlertChecksSpec     string
	MetricRetentionDays int
	MetricCleanupSpec   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "delivery-insights"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Jira: JiraConfig{
			BaseURL:        getEnv("JIRA_BASE_URL", ""),
			Username:       getEnv("JIRA_USERNAME", ""),
			APIToken:       os.Getenv("JIRA_API_TOKEN"),
			ProjectKeys:    getEnvAsList("JIRA_PROJECT_KEYS"),
			BoardID:        getEnv("JIRA_BOARD_ID", ""),
			MaxResults:     getEnvAsInt("JIRA_MAX_RESULTS", 100),
			TimeoutSeconds: getEnvAsInt("JIRA_TIMEOUT_SECONDS", 30),
		},
		GitLab: GitLabConfig{
			BaseURL:        getEnv("GITLAB_BASE_URL", "https://gitlab.com"),
			APIToken:       os.Getenv("GITLAB_API_TOKEN"),
			ProjectIDs:     getEnvAsList("GITLAB_PROJECT_IDS"),
			TimeoutSeconds: getEnvAsInt("GITLAB_TIMEOUT_SECONDS", 30),
		},
		AWS: AWSConfig{
			Region:        getEnv("AWS_REGION", "us-east-1"),
			PeriodSeconds: int32(getEnvAsInt("AWS_METRIC_PERIOD_SECONDS", 300)),
		},
		Alerts: AlertConfig{
			VelocityDropPercent: getEnvAsFloat("ALERT_VELOCITY_DROP_PERCENT", 20),
			AfterHoursPercent:   getEnvAsFloat("ALERT_AFTER_HOURS_PERCENT", 30),
			WeekendCommits:      getEnvAsInt("ALERT_WEEKEND_COMMITS", 5),
			CPUPercent:          getEnvAsFloat("ALERT_CPU_PERCENT", 80),
			MemoryPercent:       getEnvAsFloat("ALERT_MEMORY_PERCENT", 85),
			ErrorRatePercent:    getEnvAsFloat("ALERT_ERROR_RATE_PERCENT", 1.0),
		},
		Scheduler: SchedulerConfig{
			Enabled:             getEnvAsBool("SCHEDULER_ENABLED", true),
			TicketsSpec:         getEnv("SCHEDULE_TICKETS", "@every 15m"),
			TicketsLookbackMin:  getEnvAsInt("TICKETS_LOOKBACK_MINUTES", 30),
			SprintsSpec:         getEnv("SCHEDULE_SPRINTS", "@every 1h"),
			CommitsSpec:         getEnv("SCHEDULE_COMMITS", "@every 10m"),
			CommitsLookbackMin:  getEnvAsInt("COMMITS_LOOKBACK_MINUTES", 20),
			InfraSpec:           getEnv("SCHEDULE_INFRA", "@every 5m"),
			InfraLookbackMin:    getEnvAsInt("INFRA_LOOKBACK_MINUTES", 10),
			CostSpec:            getEnv("SCHEDULE_COST", "@daily"),
			CostLookbackDays:    getEnvAsInt("COST_LOOKBACK_DAYS", 1),
			AlertChecksSpec:     getEnv("SCHEDULE_ALERT_CHECKS", "@every 30m"),
			MetricRetentionDays: getEnvAsInt("METRIC_RETENTION_DAYS", 90),
			MetricCleanupSpec:   getEnv("SCHEDULE_METRIC_CLEANUP", "@daily"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the HTTP client timeout for tracker calls.
func (j JiraConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// Timeout returns the HTTP client timeout for source-control calls.
func (g GitLabConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
