package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileEnv = "ENGAGE_CONFIG"

type Config struct {
	// Server
	ServerPort         string   `yaml:"serverPort"`
	Env                string   `yaml:"env"`
	LogLevel           string   `yaml:"logLevel"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`

	// Storage: gorm, pgx or memory
	StorageDriver string `yaml:"storageDriver"`

	// Database
	DBHost     string `yaml:"dbHost"`
	DBPort     string `yaml:"dbPort"`
	DBUser     string `yaml:"dbUser"`
	DBPassword string `yaml:"dbPassword"`
	DBName     string `yaml:"dbName"`
	DBSSLMode  string `yaml:"dbSSLMode"`

	// Redis
	RedisHost     string `yaml:"redisHost"`
	RedisPort     string `yaml:"redisPort"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`

	// Identity
	IdentityServerPort string `yaml:"identityServerPort"`
	JWTSecret          string `yaml:"jwtSecret"`
	JWTIssuer          string `yaml:"jwtIssuer"`
	IdentityJWKSURL    string `yaml:"identityJwksUrl"`
	IdentityIssuer     string `yaml:"identityIssuer"`
	IdentityAudience   string `yaml:"identityAudience"`

	// AWS S3
	AWSRegion          string `yaml:"awsRegion"`
	AWSAccessKeyID     string `yaml:"awsAccessKeyId"`
	AWSSecretAccessKey string `yaml:"awsSecretAccessKey"`
	AWSEndpoint        string `yaml:"awsEndpoint"`
	S3UseSSL           string `yaml:"s3UseSSL"`
	S3BucketName       string `yaml:"s3BucketName"`

	// Remote scoring service
	MLServiceURL    string `yaml:"mlServiceUrl"`
	MLServiceAPIKey string `yaml:"mlServiceApiKey"`

	// Events: rabbitmq, nats or none
	EventBroker      string `yaml:"eventBroker"`
	RabbitMQHost     string `yaml:"rabbitmqHost"`
	RabbitMQPort     string `yaml:"rabbitmqPort"`
	RabbitMQUser     string `yaml:"rabbitmqUser"`
	RabbitMQPassword string `yaml:"rabbitmqPassword"`
	NATSURL          string `yaml:"natsUrl"`

	// Tracing
	TracingEnabled bool `yaml:"tracingEnabled"`
}

func defaults() *Config {
	return &Config{
		ServerPort:         "5000",
		Env:                "development",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		RateLimitPerMinute: 100,

		StorageDriver: "gorm",

		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "engagepredict",
		DBSSLMode:  "disable",

		RedisHost: "localhost",
		RedisPort: "6379",

		IdentityServerPort: "5001",
		JWTSecret:          "your-secret-key-change-in-production",
		JWTIssuer:          "engagepredict-identity",
		IdentityAudience:   "engagepredict",

		AWSRegion:    "us-east-1",
		S3UseSSL:     "true",
		S3BucketName: "engagepredict-media",

		EventBroker:      "none",
		RabbitMQHost:     "localhost",
		RabbitMQPort:     "5672",
		RabbitMQUser:     "guest",
		RabbitMQPassword: "guest",
	}
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := defaults()

	if path := os.Getenv(configFileEnv); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	config.ServerPort = getEnv("SERVER_PORT", config.ServerPort)
	config.Env = getEnv("APP_ENV", config.Env)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", config.CORSAllowedOrigins)
	config.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", config.RateLimitPerMinute)

	config.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", config.StorageDriver))

	config.DBHost = getEnv("DB_HOST", config.DBHost)
	config.DBPort = getEnv("DB_PORT", config.DBPort)
	config.DBUser = getEnv("DB_USER", config.DBUser)
	config.DBPassword = getEnv("DB_PASSWORD", config.DBPassword)
	config.DBName = getEnv("DB_NAME", config.DBName)
	config.DBSSLMode = getEnv("DB_SSLMODE", config.DBSSLMode)

	config.RedisHost = getEnv("REDIS_HOST", config.RedisHost)
	config.RedisPort = getEnv("REDIS_PORT", config.RedisPort)
	config.RedisPassword = getEnv("REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = getEnvInt("REDIS_DB", config.RedisDB)

	config.IdentityServerPort = getEnv("IDENTITY_SERVER_PORT", config.IdentityServerPort)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISSUER", config.JWTIssuer)
	config.IdentityJWKSURL = getEnv("IDENTITY_JWKS_URL", config.IdentityJWKSURL)
	config.IdentityIssuer = getEnv("IDENTITY_ISSUER", config.IdentityIssuer)
	config.IdentityAudience = getEnv("IDENTITY_AUDIENCE", config.IdentityAudience)

	config.AWSRegion = getEnv("AWS_REGION", config.AWSRegion)
	config.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", config.AWSAccessKeyID)
	config.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", config.AWSSecretAccessKey)
	config.AWSEndpoint = getEnv("AWS_ENDPOINT", config.AWSEndpoint)
	config.S3UseSSL = getEnv("S3_USE_SSL", config.S3UseSSL)
	config.S3BucketName = getEnv("S3_BUCKET_NAME", config.S3BucketName)

	config.MLServiceURL = getEnv("ML_SERVICE_URL", config.MLServiceURL)
	config.MLServiceAPIKey = getEnv("ML_SERVICE_API_KEY", config.MLServiceAPIKey)

	config.EventBroker = strings.ToLower(getEnv("EVENT_BROKER", config.EventBroker))
	config.RabbitMQHost = getEnv("RABBITMQ_HOST", config.RabbitMQHost)
	config.RabbitMQPort = getEnv("RABBITMQ_PORT", config.RabbitMQPort)
	config.RabbitMQUser = getEnv("RABBITMQ_USER", config.RabbitMQUser)
	config.RabbitMQPassword = getEnv("RABBITMQ_PASSWORD", config.RabbitMQPassword)
	config.NATSURL = getEnv("NATS_URL", config.NATSURL)

	config.TracingEnabled = getEnvBool("TRACING_ENABLED", config.TracingEnabled)

	switch config.StorageDriver {
	case "gorm", "pgx", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.StorageDriver)
	}

	return config, nil
}

// DatabaseDSN builds a keyword/value Postgres DSN understood by gorm, pgx and lib/pq.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
	)
}

// HasDefaultSecret reports whether JWT_SECRET was left at its placeholder.
func (c *Config) HasDefaultSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == "your-secret-key-change-in-production"
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
