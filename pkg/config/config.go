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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	RabbitMQ      RabbitMQConfig
	CORS          CORSConfig
	Log           LogConfig
	Gantt         GanttConfig
	Calendar      CalendarConfig
	Sync          SyncConfig
	KeepAlive     KeepAliveConfig
	Confirmations ConfirmationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	QueryTimeout time.Duration
	AutoMigrate  bool
}

// RedisConfig backs the gantt cache. Addrs overrides Host/Port for sentinel or cluster deployments.
type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Addrs      []string
	MasterName string
	Password   string
	DB         int
	PoolSize   int
}

// RabbitMQConfig points at the broker used for outbound mail messages.
type RabbitMQConfig struct {
	URL            string
	MailQueue      string
	PublishTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GanttConfig tunes range aggregation caching.
type GanttConfig struct {
	CacheTTL time.Duration
}

// CalendarConfig describes the OAuth2 client and REST endpoint of the external calendar provider.
type CalendarConfig struct {
	Provider           string
	ClientID           string
	ClientSecret       string
	AuthURL            string
	TokenURL           string
	RedirectURL        string
	Scopes             []string
	APIBaseURL         string
	TimeZone           string
	TokenEncryptionKey string
	RefreshBuffer      time.Duration
	StateSecret        string
}

// SyncConfig controls the background sync workers.
type SyncConfig struct {
	BatchSize       int
	Workers         int
	QueueSize       int
	MaxRetries      int
	RetryDelay      time.Duration
	ExternalTimeout time.Duration
	FullSyncTimeout time.Duration
	MaxErrorReports int
}

// KeepAliveConfig controls the recurring token keep-alive job.
type KeepAliveConfig struct {
	Enabled  bool
	Interval time.Duration
}

// ConfirmationConfig governs customer-facing booking confirmation links.
type ConfirmationConfig struct {
	Secret  string
	TTL     time.Duration
	BaseURL string
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		QueryTimeout: parseDuration(v.GetString("DB_QUERY_TIMEOUT"), 10*time.Second),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:    v.GetBool("REDIS_ENABLED"),
		Host:       v.GetString("REDIS_HOST"),
		Port:       v.GetInt("REDIS_PORT"),
		Addrs:      splitAndTrim(v.GetString("REDIS_ADDRS")),
		MasterName: v.GetString("REDIS_MASTER_NAME"),
		Password:   v.GetString("REDIS_PASSWORD"),
		DB:         v.GetInt("REDIS_DB"),
		PoolSize:   v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.RabbitMQ = RabbitMQConfig{
		URL:            v.GetString("RABBITMQ_URL"),
		MailQueue:      v.GetString("MAIL_QUEUE"),
		PublishTimeout: parseDuration(v.GetString("RABBITMQ_PUBLISH_TIMEOUT"), 5*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Gantt = GanttConfig{
		CacheTTL: parseDuration(v.GetString("GANTT_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Calendar = CalendarConfig{
		Provider:           v.GetString("CALENDAR_PROVIDER"),
		ClientID:           v.GetString("CALENDAR_CLIENT_ID"),
		ClientSecret:       v.GetString("CALENDAR_CLIENT_SECRET"),
		AuthURL:            v.GetString("CALENDAR_AUTH_URL"),
		TokenURL:           v.GetString("CALENDAR_TOKEN_URL"),
		RedirectURL:        v.GetString("CALENDAR_REDIRECT_URL"),
		Scopes:             splitAndTrim(v.GetString("CALENDAR_SCOPES")),
		APIBaseURL:         v.GetString("CALENDAR_API_BASE_URL"),
		TimeZone:           v.GetString("CALENDAR_TIMEZONE"),
		TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
		RefreshBuffer:      parseDuration(v.GetString("TOKEN_REFRESH_BUFFER"), 5*time.Minute),
		StateSecret:        v.GetString("CALENDAR_STATE_SECRET"),
	}

	cfg.Sync = SyncConfig{
		BatchSize:       positiveInt(v.GetInt("SYNC_BATCH_SIZE"), 5),
		Workers:         positiveInt(v.GetInt("SYNC_WORKERS"), 4),
		QueueSize:       positiveInt(v.GetInt("SYNC_QUEUE_SIZE"), 256),
		MaxRetries:      positiveInt(v.GetInt("SYNC_MAX_RETRIES"), 3),
		RetryDelay:      parseDuration(v.GetString("SYNC_RETRY_DELAY"), 5*time.Second),
		ExternalTimeout: parseDuration(v.GetString("SYNC_EXTERNAL_TIMEOUT"), 15*time.Second),
		FullSyncTimeout: parseDuration(v.GetString("SYNC_FULL_TIMEOUT"), 10*time.Minute),
		MaxErrorReports: positiveInt(v.GetInt("SYNC_MAX_ERROR_REPORTS"), 20),
	}

	cfg.KeepAlive = KeepAliveConfig{
		Enabled:  v.GetBool("KEEPALIVE_ENABLED"),
		Interval: parseDuration(v.GetString("KEEPALIVE_INTERVAL"), 4*time.Hour),
	}

	cfg.Confirmations = ConfirmationConfig{
		Secret:  v.GetString("CONFIRMATION_SECRET"),
		TTL:     parseDuration(v.GetString("CONFIRMATION_TTL"), 7*24*time.Hour),
		BaseURL: v.GetString("CONFIRMATION_BASE_URL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects development secrets outside development.
func (c *Config) validate() error {
	if c.Env != EnvProduction {
		return nil
	}
	if c.Calendar.TokenEncryptionKey == "" {
		return errors.New("TOKEN_ENCRYPTION_KEY is required in production")
	}
	if strings.HasPrefix(c.Calendar.StateSecret, "dev_") {
		return errors.New("CALENDAR_STATE_SECRET must be set in production")
	}
	if strings.HasPrefix(c.Confirmations.Secret, "dev_") {
		return errors.New("CONFIRMATION_SECRET must be set in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "crew_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_QUERY_TIMEOUT", "10s")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ADDRS", "")
	v.SetDefault("REDIS_MASTER_NAME", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAIL_QUEUE", "email_queue")
	v.SetDefault("RABBITMQ_PUBLISH_TIMEOUT", "5s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GANTT_CACHE_TTL", "2m")

	v.SetDefault("CALENDAR_PROVIDER", "outlook")
	v.SetDefault("CALENDAR_CLIENT_ID", "")
	v.SetDefault("CALENDAR_CLIENT_SECRET", "")
	v.SetDefault("CALENDAR_AUTH_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/authorize")
	v.SetDefault("CALENDAR_TOKEN_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/token")
	v.SetDefault("CALENDAR_REDIRECT_URL", "http://localhost:8080/api/v1/calendar/oauth/outlook/callback")
	v.SetDefault("CALENDAR_SCOPES", "offline_access,Calendars.ReadWrite,User.Read")
	v.SetDefault("CALENDAR_API_BASE_URL", "https://graph.microsoft.com/v1.0")
	v.SetDefault("CALENDAR_TIMEZONE", "UTC")
	v.SetDefault("TOKEN_ENCRYPTION_KEY", "")
	v.SetDefault("TOKEN_REFRESH_BUFFER", "5m")
	v.SetDefault("CALENDAR_STATE_SECRET", "dev_calendar_state_secret")

	v.SetDefault("SYNC_BATCH_SIZE", 5)
	v.SetDefault("SYNC_WORKERS", 4)
	v.SetDefault("SYNC_QUEUE_SIZE", 256)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "5s")
	v.SetDefault("SYNC_EXTERNAL_TIMEOUT", "15s")
	v.SetDefault("SYNC_FULL_TIMEOUT", "10m")
	v.SetDefault("SYNC_MAX_ERROR_REPORTS", 20)

	v.SetDefault("KEEPALIVE_ENABLED", true)
	v.SetDefault("KEEPALIVE_INTERVAL", "4h")

	v.SetDefault("CONFIRMATION_SECRET", "dev_confirmation_secret")
	v.SetDefault("CONFIRMATION_TTL", "168h")
	v.SetDefault("CONFIRMATION_BASE_URL", "http://localhost:3000/confirm")
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

func positiveInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// viper reports a missing explicit config file as a plain fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
