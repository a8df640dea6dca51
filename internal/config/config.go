package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"nfrecon"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"nfrecon"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	// Store selects the document repository: "postgres" or "memory". The memory
	// ledger starts from LedgerFixture, a JSON file of financial records.
	Store struct {
		Driver        string `envconfig:"STORE_DRIVER" default:"postgres"`
		LedgerFixture string `envconfig:"STORE_LEDGER_FIXTURE"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		MaxUploadBytes int64         `envconfig:"SERVER_MAX_UPLOAD_BYTES" default:"20971520"`
		AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Auth struct {
		Secret string `envconfig:"AUTH_JWT_SECRET"`
	}

	OCR struct {
		URL     string        `envconfig:"OCR_URL" default:"http://localhost:9090"`
		Token   string        `envconfig:"OCR_TOKEN"`
		Timeout time.Duration `envconfig:"OCR_TIMEOUT" default:"20s"`
	}

	// Fingerprint selects where content fingerprints are reserved: "postgres", "redis" or "memory".
	Fingerprint struct {
		Backend string `envconfig:"FINGERPRINT_BACKEND" default:"postgres"`
	}

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Storage struct {
		Backend         string `envconfig:"STORAGE_BACKEND" default:"local"`
		LocalDir        string `envconfig:"STORAGE_LOCAL_DIR" default:"./data/documents"`
		Bucket          string `envconfig:"STORAGE_BUCKET"`
		CredentialsJSON string `envconfig:"STORAGE_CREDENTIALS_JSON"`
	}

	PubSub struct {
		ProjectID       string `envconfig:"PUBSUB_PROJECT_ID"`
		Topic           string `envconfig:"PUBSUB_TOPIC" default:"nf-document-resolved"`
		CredentialsJSON string `envconfig:"PUBSUB_CREDENTIALS_JSON"`
	}

	Log struct {
		Level slog.Level `envconfig:"LOG_LEVEL" default:"info"`
	}

	TUI struct {
		TenantID string `envconfig:"TUI_TENANT_ID"`
		Operator string `envconfig:"TUI_OPERATOR" default:"operator"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
