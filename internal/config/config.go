package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone AuthMode = "none" // No authentication required (default)
	AuthModeJWT  AuthMode = "jwt"  // Bearer JWT or session cookie required on /api
)

type StorageProvider string

const (
	StorageProviderLocal    StorageProvider = "local"
	StorageProviderSupabase StorageProvider = "supabase"
	StorageProviderGCS      StorageProvider = "gcs"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Auth
		Storage
		Chat
		Tasks
		Reconcile
		Redis
	}

	HTTP struct {
		Port           int32
		Host           string
		AllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Mode string // "dev" or "prod"
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // SQLite file
		DSN    string // Postgres connection string
	}
	Auth struct {
		Mode            AuthMode
		JWTSecret       string
		TokenExpiry     time.Duration
		BcryptCost      int
		SessionSecret   string
		SessionLifetime time.Duration
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
	Storage struct {
		Provider      StorageProvider
		LocalDir      string
		PublicBaseURL string // Base URL for locally served uploads

		SupabaseURL    string
		SupabaseBucket string
		SupabaseKey    string

		GCSBucket        string
		GCSPublicBaseURL string
		GCSEndpoint      string // Emulator or custom endpoint
	}
	Chat struct {
		APIKey  string
		BaseURL string
		Model   string
		Referer string
		Timeout time.Duration
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Redis struct {
		Addr           string // Empty disables Redis
		Password       string
		DB             int
		IdempotencyTTL time.Duration
	}
)

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_mode", "dev")

	v.SetDefault("database_driver", string(DatabaseDriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_jwt_secret", "")          // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "24h")     // JWT lifetime
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies

	// Blob storage defaults
	v.SetDefault("storage_provider", string(StorageProviderLocal))
	v.SetDefault("storage_local_dir", "./uploads")
	v.SetDefault("storage_public_base_url", "http://localhost:8080/uploads")
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_bucket", "")
	v.SetDefault("supabase_key", "")
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("gcs_public_base_url", "https://storage.googleapis.com")
	v.SetDefault("gcs_endpoint", "")

	// Chat relay defaults
	v.SetDefault("openrouter_api_key", "")
	v.SetDefault("openrouter_url", DefaultOpenRouterURL)
	v.SetDefault("openrouter_model", DefaultChatModel)
	v.SetDefault("openrouter_referer", "http://localhost:3000")
	v.SetDefault("openrouter_timeout", "60s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_schedule", "*/30 * * * *")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("idempotency_ttl", "24h")

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
		Database: Database{
			Driver: DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			JWTSecret:       v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry:     v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
		Storage: Storage{
			Provider:         StorageProvider(strings.ToLower(v.GetString("STORAGE_PROVIDER"))),
			LocalDir:         v.GetString("STORAGE_LOCAL_DIR"),
			PublicBaseURL:    v.GetString("STORAGE_PUBLIC_BASE_URL"),
			SupabaseURL:      v.GetString("SUPABASE_URL"),
			SupabaseBucket:   v.GetString("SUPABASE_BUCKET"),
			SupabaseKey:      v.GetString("SUPABASE_KEY"),
			GCSBucket:        v.GetString("GCS_BUCKET"),
			GCSPublicBaseURL: v.GetString("GCS_PUBLIC_BASE_URL"),
			GCSEndpoint:      v.GetString("GCS_ENDPOINT"),
		},
		Chat: Chat{
			APIKey:  v.GetString("OPENROUTER_API_KEY"),
			BaseURL: v.GetString("OPENROUTER_URL"),
			Model:   v.GetString("OPENROUTER_MODEL"),
			Referer: v.GetString("OPENROUTER_REFERER"),
			Timeout: v.GetDuration("OPENROUTER_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("RECONCILE_ENABLED"),
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
		},
		Redis: Redis{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
