package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  int
	Database    DatabaseConfig
	Session     SessionConfig
	Transcriber TranscriberConfig
	Upload      UploadConfig
	CORS        CORSConfig
	Archive     ArchiveConfig
	Events      EventsConfig
	Minio       MinioConfig
	GCS         GCSConfig
	RabbitMQ    RabbitMQConfig
	PubSub      PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type SessionConfig struct {
	CookieName string
	TTLHours   int
	Secure     bool
}

type TranscriberConfig struct {
	// BaseURL is the root of the external Python transcription service.
	BaseURL string
	// AnalyzeTimeoutSeconds bounds the optional metadata-analysis call.
	AnalyzeTimeoutSeconds int
	// TranscribeTimeoutSeconds bounds the required transcription call.
	TranscribeTimeoutSeconds int
}

type UploadConfig struct {
	// Dir is where multipart audio uploads are spooled before being
	// forwarded to the transcription service.
	Dir string
}

type CORSConfig struct {
	// AllowedOrigins lists the frontend origins permitted to make
	// credentialed requests.
	AllowedOrigins []string
}

// ArchiveConfig selects the optional object-storage backend used to
// retain original audio recordings. An empty backend disables archival.
type ArchiveConfig struct {
	Backend string // "", "minio" or "gcs"
}

// EventsConfig selects the optional domain-event broker. An empty
// backend disables event publishing.
type EventsConfig struct {
	Backend string // "", "rabbitmq" or "pubsub"
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 3306),
		User:     getEnv("DB_USER", "voicescript"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "voicescript_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 5001),
		Database:   dbConfig,
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "voicescript_sid"),
			TTLHours:   getEnvInt("SESSION_TTL_HOURS", 24),
			Secure:     getEnvBool("SESSION_SECURE", false),
		},
		Transcriber: TranscriberConfig{
			BaseURL:                  getEnv("PYTHON_SERVICE_URL", "http://localhost:5000"),
			AnalyzeTimeoutSeconds:    getEnvInt("TRANSCRIBE_ANALYZE_TIMEOUT", 30),
			TranscribeTimeoutSeconds: getEnvInt("TRANSCRIBE_TIMEOUT", 300),
		},
		Upload: UploadConfig{
			Dir: getEnv("UPLOAD_DIR", "uploads"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ORIGINS", "http://localhost:3000"),
		},
		Archive: ArchiveConfig{
			Backend: getEnv("ARCHIVE_BACKEND", ""),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "voicescript-recordings"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
