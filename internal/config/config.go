package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxSignedURLTTL is the longest validity a V4 signed URL may carry.
const MaxSignedURLTTL = 7 * 24 * time.Hour

// Storage backends understood by the object store factory.
const (
	BackendGCS   = "gcs"
	BackendMinIO = "minio"
)

// ErrProjectIDRequired is returned by Load when PROJECT_ID is not set.
var ErrProjectIDRequired = errors.New("PROJECT_ID is required to build the topic path")

// Config aggregates runtime configuration for the ATOM upload services.
type Config struct {
	Server   ServerConfig
	GCP      GCPConfig
	Storage  StorageConfig
	MinIO    MinIOConfig
	Ledger   LedgerConfig
	CORS     CORSConfig
	Metrics  MetricsConfig
	DevMode  bool
	LogLevel string
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GCPConfig carries project and Pub/Sub settings.
type GCPConfig struct {
	ProjectID       string
	CredentialsFile string
	Topic           string
	Subscription    string
	// MaxOutstanding bounds concurrent deliveries handled by the pull subscriber.
	MaxOutstanding int
}

// TopicPath returns the fully qualified topic name.
func (g GCPConfig) TopicPath() string {
	return fmt.Sprintf("projects/%s/topics/%s", g.ProjectID, g.Topic)
}

// StorageConfig selects the object store and upload behaviour.
type StorageConfig struct {
	Backend      string
	SignedURLTTL time.Duration
	// UploadRetries is the number of retries after the first failed write.
	UploadRetries int
	// SigningAccount and SigningKeyFile override credential discovery for
	// signed URL generation on GCS.
	SigningAccount string
	SigningKeyFile string
}

// MinIOConfig carries MinIO connection information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	EnsureBuckets   bool
}

// LedgerConfig locates the optional PostgreSQL upload ledger.
type LedgerConfig struct {
	URL      string
	MaxConns int32
}

// Enabled reports whether the ledger should be used.
func (l LedgerConfig) Enabled() bool {
	return l.URL != ""
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// AllowAll reports whether every origin is accepted.
func (c CORSConfig) AllowAll() bool {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return len(c.AllowedOrigins) == 0
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
// Missing optional values are reported by Warnings; missing required ones fail here.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("ATOM_API_HOST", "0.0.0.0"),
			Port:           getInt("PORT", 5000),
			ReadTimeout:    getDuration("ATOM_API_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getDuration("ATOM_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDuration("ATOM_API_IDLE_TIMEOUT", 120*time.Second),
			MaxUploadBytes: getInt64("ATOM_MAX_UPLOAD_BYTES", 32<<20),
		},
		GCP: GCPConfig{
			ProjectID:       strings.TrimSpace(getString("PROJECT_ID", "")),
			CredentialsFile: getString("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Topic:           getString("ATOM_TOPIC", "file-uploads"),
			Subscription:    getString("ATOM_SUBSCRIPTION", "file-uploads-enricher"),
			MaxOutstanding:  getInt("ATOM_SUBSCRIBER_MAX_OUTSTANDING", 10),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getString("ATOM_STORAGE_BACKEND", BackendGCS)),
			SignedURLTTL:   getDuration("ATOM_SIGNED_URL_TTL", MaxSignedURLTTL),
			UploadRetries:  getInt("ATOM_UPLOAD_RETRIES", 3),
			SigningAccount: getString("ATOM_SIGNING_ACCOUNT", ""),
			SigningKeyFile: getString("ATOM_SIGNING_KEY_FILE", ""),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "atom"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
			EnsureBuckets:   getBool("MINIO_ENSURE_BUCKETS", true),
		},
		Ledger: LedgerConfig{
			URL:      getString("ATOM_DATABASE_URL", ""),
			MaxConns: int32(getInt("ATOM_LEDGER_MAX_CONNS", 4)),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("ATOM_CORS_ORIGINS", []string{"*"}),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("ATOM_METRICS_PATH", "/metrics"),
		},
		DevMode:  isDevelopment(),
		LogLevel: getString("LOG_LEVEL", "info"),
	}

	if cfg.GCP.ProjectID == "" {
		return Config{}, ErrProjectIDRequired
	}

	switch cfg.Storage.Backend {
	case BackendGCS, BackendMinIO:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.SignedURLTTL <= 0 || cfg.Storage.SignedURLTTL > MaxSignedURLTTL {
		cfg.Storage.SignedURLTTL = MaxSignedURLTTL
	}
	if cfg.Storage.UploadRetries < 0 {
		cfg.Storage.UploadRetries = 0
	}
	if cfg.GCP.MaxOutstanding <= 0 {
		cfg.GCP.MaxOutstanding = 1
	}

	return cfg, nil
}

// Warnings lists optional settings that are absent.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Storage.Backend == BackendGCS && c.GCP.CredentialsFile == "" {
		warnings = append(warnings, "GOOGLE_APPLICATION_CREDENTIALS environment variable not set")
	}
	if !c.Ledger.Enabled() {
		warnings = append(warnings, "ATOM_DATABASE_URL not set, upload ledger disabled")
	}
	return warnings
}

func isDevelopment() bool {
	env := getString("ATOM_ENV", getString("FLASK_ENV", ""))
	return strings.EqualFold(strings.TrimSpace(env), "development")
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
