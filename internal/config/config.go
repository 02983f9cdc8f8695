package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	UploadFolder string `env:"UPLOAD_FOLDER" envDefault:"static/uploads"`
	MaxUploadMB  int64  `env:"MAX_UPLOAD_MB" envDefault:"16"`

	LPRProvider   string        `env:"LPR_PROVIDER" envDefault:"aiforthai"` // aiforthai | rekognition
	LPRAPIURL     string        `env:"LPR_API_URL" envDefault:"https://api.aiforthai.in.th/lpr-iapp"`
	LPRAPIKey     string        `env:"LPR_API_KEY"`
	LPRUseMock    bool          `env:"LPR_USE_MOCK" envDefault:"false"`
	LPRTimeout    time.Duration `env:"LPR_TIMEOUT" envDefault:"20s"`
	LPRRatePerSec float64       `env:"LPR_RATE_PER_SEC" envDefault:"2"`

	DetectorModelPath string `env:"DETECTOR_MODEL_PATH" envDefault:"models/best.tflite"`
	DetectorThreads   int    `env:"DETECTOR_THREADS" envDefault:"0"`

	StoreBackend            string `env:"STORE_BACKEND" envDefault:"firebase"` // firebase | postgres | memory
	FirebaseDatabaseURL     string `env:"FIREBASE_DATABASE_URL"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"lpr"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"lpr_db"`
	DBSslMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBTable    string `env:"DB_TABLE" envDefault:"license_plate_detections"`

	AWSRegion          string `env:"AWS_REGION" envDefault:"ap-southeast-1"`
	SQSCaptureQueueURL string `env:"SQS_CAPTURE_QUEUE_URL"`
	SQSResultQueueURL  string `env:"SQS_RESULT_QUEUE_URL"`
	IoTMQTTEndpoint    string `env:"IOT_MQTT_ENDPOINT"`
	IoTTopic           string `env:"IOT_TOPIC" envDefault:"lpr/detections"`

	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTTopic    string `env:"MQTT_TOPIC" envDefault:"lpr/detections"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"thai-lpr"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`

	JWTSecret          string `env:"JWT_SECRET"`
	JWTExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	AdminUsername      string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash  string `env:"ADMIN_PASSWORD_HASH"`

	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "firebase", "postgres", "memory":
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q (firebase|postgres|memory)", c.StoreBackend)
	}
	switch c.LPRProvider {
	case "aiforthai", "rekognition":
	default:
		return fmt.Errorf("invalid LPR_PROVIDER %q (aiforthai|rekognition)", c.LPRProvider)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

// PostgresDSN builds the key/value connection string used by the pgx driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
