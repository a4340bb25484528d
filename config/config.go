package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8000"`
	UploadDir   string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"512"`

	// Batch-Registry in Postgres; ohne DB_HOST wird im Speicher gearbeitet
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"arrangeit"`

	// Spiegelung der Archive nach S3
	S3URL        string `envconfig:"S3_URL"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key        string `envconfig:"S3_KEY"`
	S3Secret     string `envconfig:"S3_SECRET"`
	S3Bucket     string `envconfig:"S3_BUCKET"`
	KeepArchives int    `envconfig:"KEEP_ARCHIVES" default:"20"`

	CleanupSchedule string        `envconfig:"CLEANUP_SCHEDULE" default:"0 * * * *"`
	BatchRetention  time.Duration `envconfig:"BATCH_RETENTION" default:"24h"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// DatabaseEnabled meldet, ob eine Postgres-Registry konfiguriert ist.
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != ""
}

// S3Enabled meldet, ob Archive nach S3 gespiegelt werden sollen.
func (c *Config) S3Enabled() bool {
	return c.S3URL != "" && c.S3Bucket != "" && c.S3Key != "" && c.S3Secret != ""
}

// MaxUploadBytes liefert das Upload-Limit in Bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
