package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "IG"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// LoadConfig loads configuration from file based on the environment
// The YAML file is optional; defaults and IG_* variables are enough to run
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Environment = env

	return &config, nil
}

// loadDotEnvFile loads the first .env file found; existing variables win
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return errors.New("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "6m")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.readHeaderTimeout", "10s")
	v.SetDefault("server.shutdownTimeout", "30s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", "30m")
	v.SetDefault("database.connMaxIdleTime", "15m")
	v.SetDefault("database.queryTimeout", "5s")
	v.SetDefault("database.retryAttempts", 5)
	v.SetDefault("database.retryDelay", "2s")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.slowThreshold", "200ms")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("provider.baseURL", "https://dashscope.aliyuncs.com")
	v.SetDefault("provider.model", "wan2.2-t2i-plus")
	v.SetDefault("provider.batchSize", 4)
	v.SetDefault("provider.imageSize", "1024*1024")
	v.SetDefault("provider.requestTimeout", "30s")

	v.SetDefault("generation.maxPromptLength", 800)
	v.SetDefault("generation.pollInterval", "2s")
	v.SetDefault("generation.pollTimeout", "5m")
	v.SetDefault("generation.maxPollAttempts", 150)
	v.SetDefault("generation.workers", 8)
	v.SetDefault("generation.queueSize", 256)
	v.SetDefault("generation.historyTimeout", "3s")

	v.SetDefault("credits.initialGrant", 5)

	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", "1m")
	v.SetDefault("reconciler.staleAfter", "10m")
	v.SetDefault("reconciler.abandonAfter", "24h")
	v.SetDefault("reconciler.batchSize", 100)
	v.SetDefault("reconciler.concurrency", 4)

	v.SetDefault("cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("cors.maxAge", "12h")

	v.SetDefault("redis.channel", "imagegen.events")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.serviceName", "imagegen")
	v.SetDefault("tracing.sampleRatio", 1.0)
}

// getEnvironment determines the environment from IG_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides makes flat, conventional variable names win over file values
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"IG_DB_DRIVER":         "database.driver",
		"IG_DB_HOST":           "database.host",
		"IG_DB_USERNAME":       "database.username",
		"IG_DB_PASSWORD":       "database.password",
		"IG_DB_NAME":           "database.database",
		"IG_DB_SSL_MODE":       "database.sslMode",
		"IG_SERVER_HOST":       "server.host",
		"IG_LOGGER_LEVEL":      "logger.level",
		"IG_PROVIDER_API_KEY":  "provider.apiKey",
		"IG_PROVIDER_BASE_URL": "provider.baseURL",
		"IG_AUTH_JWT_SECRET":   "auth.jwtSecret",
		"IG_REDIS_ADDR":        "redis.addr",
		"IG_REDIS_PASSWORD":    "redis.password",
		"IG_TRACING_ENDPOINT":  "tracing.endpoint",
	}
	for env, key := range overrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	if port := getEnvInt("IG_DB_PORT", 0); port > 0 {
		v.Set("database.port", port)
	}
	if port := getEnvInt("IG_SERVER_PORT", 0); port > 0 {
		v.Set("server.port", port)
	}
	if grant := getEnvInt("IG_CREDITS_INITIAL_GRANT", 0); grant > 0 {
		v.Set("credits.initialGrant", grant)
	}
	if origins := os.Getenv("IG_CORS_ALLOWED_ORIGINS"); origins != "" {
		v.Set("cors.allowedOrigins", strings.Split(origins, ","))
	}
}

// getEnvInt reads an integer variable, falling back on absence or parse failure
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
