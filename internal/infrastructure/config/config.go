package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Logger      LoggerConfig     `mapstructure:"logger"`
	Provider    ProviderConfig   `mapstructure:"provider"`
	Generation  GenerationConfig `mapstructure:"generation"`
	Credits     CreditsConfig    `mapstructure:"credits"`
	Reconciler  ReconcilerConfig `mapstructure:"reconciler"`
	Auth        AuthConfig       `mapstructure:"auth"`
	CORS        CORSConfig       `mapstructure:"cors"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Tracing     TracingConfig    `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"` // Must cover a waiting generation
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"` // Database name, or file path for sqlite
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	LogLevel        string        `mapstructure:"logLevel"`
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// ProviderConfig contains the image provider client settings
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	APIKey         string        `mapstructure:"apiKey"`
	Model          string        `mapstructure:"model"`
	BatchSize      int           `mapstructure:"batchSize"`
	ImageSize      string        `mapstructure:"imageSize"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

// GenerationConfig contains generation flow settings
type GenerationConfig struct {
	MaxPromptLength int           `mapstructure:"maxPromptLength"`
	PollInterval    time.Duration `mapstructure:"pollInterval"`
	PollTimeout     time.Duration `mapstructure:"pollTimeout"`
	MaxPollAttempts int           `mapstructure:"maxPollAttempts"`
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queueSize"`
	HistoryTimeout  time.Duration `mapstructure:"historyTimeout"`
}

// CreditsConfig contains ledger settings
type CreditsConfig struct {
	InitialGrant int64 `mapstructure:"initialGrant"`
}

// ReconcilerConfig contains stale generation sweep settings
type ReconcilerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	StaleAfter   time.Duration `mapstructure:"staleAfter"`
	AbandonAfter time.Duration `mapstructure:"abandonAfter"`
	BatchSize    int           `mapstructure:"batchSize"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// AuthConfig contains session token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	Issuer    string `mapstructure:"issuer"`   // Optional expected iss claim
	Audience  string `mapstructure:"audience"` // Optional expected aud claim
}

// CORSConfig contains cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	MaxAge         time.Duration `mapstructure:"maxAge"`
}

// RedisConfig contains lifecycle event publishing settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // Empty disables publishing
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // stdout or otlp
	Endpoint    string  `mapstructure:"endpoint"` // host:port for otlp
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"serviceName"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// Address returns the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
