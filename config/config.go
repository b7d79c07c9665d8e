package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Email      EmailConfig
	Redis      RedisConfig
	Files      FilesConfig
	AWS        AWSConfig
	GoogleForm GoogleFormConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	TaskTimeout        time.Duration
}

// StoreConfig selects and locates the document database. An empty URI leaves the store not configured and
// the site runs on fallback data.
type StoreConfig struct {
	Driver          string // mongo or postgres
	MongoURI        string
	MongoDB         string
	PostgresURL     string
	ConnectTimeout  time.Duration
	CheckInterval   time.Duration
	EventsTimeout   time.Duration
	PrimePerRequest bool
}

// URI returns the connection string for the selected driver.
func (c StoreConfig) URI() string {
	if c.Driver == "postgres" {
		return c.PostgresURL
	}
	return c.MongoURI
}

// EmailConfig holds the SMTP account. Without User and Password no email is sent.
type EmailConfig struct {
	User       string
	Password   string
	From       string
	FromName   string
	AdminEmail string
	SMTPHost   string
	SMTPPort   int
}

// RedisConfig holds Redis connection settings. An empty Addr keeps email delivery in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FilesConfig holds local file locations.
type FilesConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	BackupFile     string
}

// AWSConfig holds AWS credentials and the payments bucket. An empty bucket disables the mirror.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PaymentsBucket  string
}

// GoogleFormConfig locates the form registrations are mirrored to.
type GoogleFormConfig struct {
	ActionURL string
	Fields    string // fullName=entry.123,email=entry.456
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	emailUser := getEnv("EMAIL_USER", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "5000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			TaskTimeout:        seconds(getEnvInt("BACKGROUND_TASK_TIMEOUT_SEC", 120)),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
			MongoURI:        getEnv("MONGODB_URI", ""),
			MongoDB:         getEnv("MONGODB_DB", "eduverse"),
			PostgresURL:     getEnv("DATABASE_URL", ""),
			ConnectTimeout:  seconds(getEnvInt("STORE_CONNECT_TIMEOUT_SEC", 5)),
			CheckInterval:   seconds(getEnvInt("STORE_CHECK_INTERVAL_SEC", 15)),
			EventsTimeout:   seconds(getEnvInt("EVENTS_READ_TIMEOUT_SEC", 5)),
			PrimePerRequest: getEnvBool("STORE_PRIME_PER_REQUEST", true),
		},
		Email: EmailConfig{
			User:       emailUser,
			Password:   getEnv("EMAIL_PASS", ""),
			From:       getEnv("EMAIL_FROM", emailUser),
			FromName:   getEnv("EMAIL_FROM_NAME", "EduVerse"),
			AdminEmail: getEnv("ADMIN_EMAIL", emailUser),
			SMTPHost:   getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:   getEnvInt("SMTP_PORT", 587),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Files: FilesConfig{
			UploadDir:      getEnv("UPLOAD_DIR", "uploads/payments"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 5)) << 20,
			BackupFile:     getEnv("BACKUP_FILE", "data/recording-requests-backup.json"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PaymentsBucket:  getEnv("AWS_S3_PAYMENTS_BUCKET", ""),
		},
		GoogleForm: GoogleFormConfig{
			ActionURL: getEnv("GOOGLE_FORM_ACTION_URL", ""),
			Fields:    getEnv("GOOGLE_FORM_FIELDS", ""),
		},
	}
	return cfg, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
