package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Ekyc       EkycConfig
	Session    SessionConfig
	Wizard     WizardConfig
	Processing ProcessingConfig
	Admin      AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// JWTConfig holds wizard token signing settings.
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	Issuer      string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings used for capture previews.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EkycConfig holds settings for the remote eKYC service.
type EkycConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	BasePath    string `mapstructure:"base_path"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	ChannelID   string `mapstructure:"channel_id"`
	SimType     string `mapstructure:"sim_type"`
	Locale      string `mapstructure:"locale"`
}

// SessionConfig selects where eKYC session ids are persisted.
type SessionConfig struct {
	Backend   string        `mapstructure:"backend"` // memory | redis | postgres
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	SealKey   string        `mapstructure:"seal_key"`
	// CheckpointPrefix keys the wizard progress saved next to the session id.
	CheckpointPrefix string `mapstructure:"checkpoint_prefix"`
}

// WizardConfig holds wizard timers and thresholds.
type WizardConfig struct {
	ResendCooldown       time.Duration `mapstructure:"resend_cooldown"`
	OTPExpiry            time.Duration `mapstructure:"otp_expiry"`
	AddressFailThreshold int           `mapstructure:"address_fail_threshold"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	PreviewBackend       string        `mapstructure:"preview_backend"` // memory | s3
}

// ProcessingConfig selects how the processing step waits for completion.
type ProcessingConfig struct {
	Mode         string        `mapstructure:"mode"` // poll | delay
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Delay        time.Duration `mapstructure:"delay"`
	Reference    string        `mapstructure:"reference"`
}

// AdminConfig protects the reporting endpoints.
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Load reads configuration from environment variables with the SIMREG_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIMREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "simreg")
	v.SetDefault("db.password", "simreg_secret")
	v.SetDefault("db.name", "simreg_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Redis defaults
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.token_expiry", "2h")
	v.SetDefault("jwt.issuer", "simreg")

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-1")
	v.SetDefault("s3.bucket", "simreg-previews")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 900)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")

	// eKYC service defaults
	v.SetDefault("ekyc.base_url", "https://devapi.bluwyre.ai/")
	v.SetDefault("ekyc.base_path", "v1/ekyc/")
	v.SetDefault("ekyc.timeout_secs", 30)
	v.SetDefault("ekyc.channel_id", "C04")
	v.SetDefault("ekyc.sim_type", "PREPAID")
	v.SetDefault("ekyc.locale", "en")

	// Session defaults
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.key_prefix", "simreg:session:")
	v.SetDefault("session.seal_key", "")
	v.SetDefault("session.checkpoint_prefix", "simreg:wizard:")

	// Wizard defaults
	v.SetDefault("wizard.resend_cooldown", "59s")
	v.SetDefault("wizard.otp_expiry", "300s")
	v.SetDefault("wizard.address_fail_threshold", 3)
	v.SetDefault("wizard.idle_timeout", "2h")
	v.SetDefault("wizard.sweep_interval", "5m")
	v.SetDefault("wizard.preview_backend", "memory")

	// Processing defaults
	v.SetDefault("processing.mode", "poll")
	v.SetDefault("processing.poll_interval", "2s")
	v.SetDefault("processing.max_attempts", 30)
	v.SetDefault("processing.delay", "5s")
	v.SetDefault("processing.reference", "ABC123")

	v.SetDefault("admin.api_key", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "SIMREG_SERVER_PORT",
		"server.read_timeout":           "SIMREG_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "SIMREG_SERVER_WRITE_TIMEOUT",
		"server.environment":            "SIMREG_SERVER_ENVIRONMENT",
		"db.host":                       "SIMREG_DB_HOST",
		"db.port":                       "SIMREG_DB_PORT",
		"db.user":                       "SIMREG_DB_USER",
		"db.password":                   "SIMREG_DB_PASSWORD",
		"db.name":                       "SIMREG_DB_NAME",
		"db.sslmode":                    "SIMREG_DB_SSLMODE",
		"db.max_open":                   "SIMREG_DB_MAX_OPEN",
		"db.max_idle":                   "SIMREG_DB_MAX_IDLE",
		"redis.url":                     "SIMREG_REDIS_URL",
		"redis.pool_size":               "SIMREG_REDIS_POOL_SIZE",
		"redis.min_idle_conns":          "SIMREG_REDIS_MIN_IDLE_CONNS",
		"redis.dial_timeout":            "SIMREG_REDIS_DIAL_TIMEOUT",
		"redis.read_timeout":            "SIMREG_REDIS_READ_TIMEOUT",
		"redis.write_timeout":           "SIMREG_REDIS_WRITE_TIMEOUT",
		"jwt.secret":                    "SIMREG_JWT_SECRET",
		"jwt.token_expiry":              "SIMREG_JWT_TOKEN_EXPIRY",
		"jwt.issuer":                    "SIMREG_JWT_ISSUER",
		"s3.region":                     "SIMREG_S3_REGION",
		"s3.bucket":                     "SIMREG_S3_BUCKET",
		"s3.endpoint":                   "SIMREG_S3_ENDPOINT",
		"s3.access_key":                 "SIMREG_S3_ACCESS_KEY",
		"s3.secret_key":                 "SIMREG_S3_SECRET_KEY",
		"s3.presign_expiry":             "SIMREG_S3_PRESIGN_EXPIRY",
		"log.level":                     "SIMREG_LOG_LEVEL",
		"log.format":                    "SIMREG_LOG_FORMAT",
		"cors.allowed_origins":          "SIMREG_CORS_ALLOWED_ORIGINS",
		"ekyc.base_url":                 "SIMREG_EKYC_BASE_URL",
		"ekyc.base_path":                "SIMREG_EKYC_BASE_PATH",
		"ekyc.timeout_secs":             "SIMREG_EKYC_TIMEOUT_SECS",
		"ekyc.channel_id":               "SIMREG_EKYC_CHANNEL_ID",
		"ekyc.sim_type":                 "SIMREG_EKYC_SIM_TYPE",
		"ekyc.locale":                   "SIMREG_EKYC_LOCALE",
		"session.backend":               "SIMREG_SESSION_BACKEND",
		"session.ttl":                   "SIMREG_SESSION_TTL",
		"session.key_prefix":            "SIMREG_SESSION_KEY_PREFIX",
		"session.seal_key":              "SIMREG_SESSION_SEAL_KEY",
		"session.checkpoint_prefix":     "SIMREG_SESSION_CHECKPOINT_PREFIX",
		"wizard.resend_cooldown":        "SIMREG_WIZARD_RESEND_COOLDOWN",
		"wizard.otp_expiry":             "SIMREG_WIZARD_OTP_EXPIRY",
		"wizard.address_fail_threshold": "SIMREG_WIZARD_ADDRESS_FAIL_THRESHOLD",
		"wizard.idle_timeout":           "SIMREG_WIZARD_IDLE_TIMEOUT",
		"wizard.sweep_interval":         "SIMREG_WIZARD_SWEEP_INTERVAL",
		"wizard.preview_backend":        "SIMREG_WIZARD_PREVIEW_BACKEND",
		"processing.mode":               "SIMREG_PROCESSING_MODE",
		"processing.poll_interval":      "SIMREG_PROCESSING_POLL_INTERVAL",
		"processing.max_attempts":       "SIMREG_PROCESSING_MAX_ATTEMPTS",
		"processing.delay":              "SIMREG_PROCESSING_DELAY",
		"processing.reference":          "SIMREG_PROCESSING_REFERENCE",
		"admin.api_key":                 "SIMREG_ADMIN_API_KEY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SIMREG_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SIMREG_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Redis = RedisConfig{
		URL:          v.GetString("redis.url"),
		PoolSize:     v.GetInt("redis.pool_size"),
		MinIdleConns: v.GetInt("redis.min_idle_conns"),
		DialTimeout:  v.GetDuration("redis.dial_timeout"),
		ReadTimeout:  v.GetDuration("redis.read_timeout"),
		WriteTimeout: v.GetDuration("redis.write_timeout"),
	}
	cfg.JWT = JWTConfig{
		Secret:      v.GetString("jwt.secret"),
		TokenExpiry: v.GetDuration("jwt.token_expiry"),
		Issuer:      v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Ekyc = EkycConfig{
		BaseURL:     v.GetString("ekyc.base_url"),
		BasePath:    v.GetString("ekyc.base_path"),
		TimeoutSecs: v.GetInt("ekyc.timeout_secs"),
		ChannelID:   v.GetString("ekyc.channel_id"),
		SimType:     v.GetString("ekyc.sim_type"),
		Locale:      v.GetString("ekyc.locale"),
	}
	cfg.Session = SessionConfig{
		Backend:   v.GetString("session.backend"),
		TTL:       v.GetDuration("session.ttl"),
		KeyPrefix: v.GetString("session.key_prefix"),
		SealKey:   v.GetString("session.seal_key"),

		CheckpointPrefix: v.GetString("session.checkpoint_prefix"),
	}
	cfg.Wizard = WizardConfig{
		ResendCooldown:       v.GetDuration("wizard.resend_cooldown"),
		OTPExpiry:            v.GetDuration("wizard.otp_expiry"),
		AddressFailThreshold: v.GetInt("wizard.address_fail_threshold"),
		IdleTimeout:          v.GetDuration("wizard.idle_timeout"),
		SweepInterval:        v.GetDuration("wizard.sweep_interval"),
		PreviewBackend:       v.GetString("wizard.preview_backend"),
	}
	cfg.Processing = ProcessingConfig{
		Mode:         v.GetString("processing.mode"),
		PollInterval: v.GetDuration("processing.poll_interval"),
		MaxAttempts:  v.GetInt("processing.max_attempts"),
		Delay:        v.GetDuration("processing.delay"),
		Reference:    v.GetString("processing.reference"),
	}
	cfg.Admin = AdminConfig{
		APIKey: v.GetString("admin.api_key"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("config: unknown session backend %q", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("config: session backend redis requires SIMREG_REDIS_URL")
	}
	switch c.Processing.Mode {
	case "poll", "delay":
	default:
		return fmt.Errorf("config: unknown processing mode %q", c.Processing.Mode)
	}
	switch c.Wizard.PreviewBackend {
	case "memory", "s3":
	default:
		return fmt.Errorf("config: unknown preview backend %q", c.Wizard.PreviewBackend)
	}
	return nil
}

// Parse comma-separated lists
func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
