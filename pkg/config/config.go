package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Storage    StorageConfig
	SMTP       SMTPConfig
	Vision     VisionConfig
	Ingestion  IngestionConfig
	Activities ActivitiesConfig
	Realtime   RealtimeConfig
	PDF        PDFConfig
	Cache      CacheConfig
	Bootstrap  BootstrapConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig drives the local identity provider.
type JWTConfig struct {
	Secret        string
	Expiration    time.Duration
	RefreshWindow time.Duration
	Issuer        string
	CookieDomain  string
	CookieSecure  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig controls where uploaded source files live and how download links are signed.
type StorageConfig struct {
	UploadsDir       string
	PublicBaseURL    string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
}

// SMTPConfig configures the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

// VisionConfig configures OCR of scanned delivery notes.
type VisionConfig struct {
	Enabled   bool
	APIKey    string
	Model     string
	MaxTokens int
}

// IngestionConfig sizes the worker pool used for multi-file submissions.
type IngestionConfig struct {
	Workers    int
	BufferSize int
}

// ActivitiesConfig controls rolling pruning of the activity log.
type ActivitiesConfig struct {
	Retention     time.Duration
	PruneInterval time.Duration
}

// RealtimeConfig controls the LISTEN/NOTIFY change hub.
type RealtimeConfig struct {
	Enabled              bool
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
}

// PDFConfig selects how the renderer handles item lists longer than one page.
type PDFConfig struct {
	OverflowPolicy string
	Title          string
}

// CacheConfig tunes catalogue snapshot caching.
type CacheConfig struct {
	TTL time.Duration
}

// BootstrapConfig seeds the first super-admin when the users table has none.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:        v.GetString("JWT_SECRET"),
		Expiration:    parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		RefreshWindow: parseDuration(v.GetString("JWT_REFRESH_WINDOW"), 10*time.Minute),
		Issuer:        v.GetString("JWT_ISSUER"),
		CookieDomain:  v.GetString("COOKIE_DOMAIN"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		UploadsDir:       v.GetString("UPLOADS_DIR"),
		PublicBaseURL:    strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 365*24*time.Hour),
		MaxFileSizeBytes: maxUpload,
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		TLS:      v.GetBool("SMTP_TLS"),
	}

	cfg.Vision = VisionConfig{
		Enabled:   v.GetBool("ENABLE_VISION_OCR"),
		APIKey:    v.GetString("ANTHROPIC_API_KEY"),
		Model:     v.GetString("VISION_MODEL"),
		MaxTokens: v.GetInt("VISION_MAX_TOKENS"),
	}

	cfg.Ingestion = IngestionConfig{
		Workers:    v.GetInt("INGESTION_WORKERS"),
		BufferSize: v.GetInt("INGESTION_BUFFER_SIZE"),
	}

	cfg.Activities = ActivitiesConfig{
		Retention:     parseDuration(v.GetString("ACTIVITY_RETENTION"), 7*24*time.Hour),
		PruneInterval: parseDuration(v.GetString("ACTIVITY_PRUNE_INTERVAL"), 6*time.Hour),
	}

	cfg.Realtime = RealtimeConfig{
		Enabled:              v.GetBool("ENABLE_REALTIME"),
		MinReconnectInterval: parseDuration(v.GetString("REALTIME_MIN_RECONNECT"), 10*time.Second),
		MaxReconnectInterval: parseDuration(v.GetString("REALTIME_MAX_RECONNECT"), time.Minute),
	}

	cfg.PDF = PDFConfig{
		OverflowPolicy: strings.ToLower(v.GetString("PDF_OVERFLOW_POLICY")),
		Title:          v.GetString("PDF_TITLE"),
	}

	cfg.Cache = CacheConfig{
		TTL: parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL"))),
		AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "procurement")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("JWT_REFRESH_WINDOW", "10m")
	v.SetDefault("JWT_ISSUER", "procurement-api")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "8760h")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "procurement@localhost")
	v.SetDefault("SMTP_TLS", true)

	v.SetDefault("ENABLE_VISION_OCR", false)
	v.SetDefault("ANTHROPIC_API_KEY", "")
	v.SetDefault("VISION_MODEL", "claude-3-5-sonnet-20241022")
	v.SetDefault("VISION_MAX_TOKENS", 1024)

	v.SetDefault("INGESTION_WORKERS", 4)
	v.SetDefault("INGESTION_BUFFER_SIZE", 32)

	v.SetDefault("ACTIVITY_RETENTION", "168h")
	v.SetDefault("ACTIVITY_PRUNE_INTERVAL", "6h")

	v.SetDefault("ENABLE_REALTIME", true)
	v.SetDefault("REALTIME_MIN_RECONNECT", "10s")
	v.SetDefault("REALTIME_MAX_RECONNECT", "1m")

	v.SetDefault("PDF_OVERFLOW_POLICY", "paginate")
	v.SetDefault("PDF_TITLE", "Purchase Request Summary")

	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
