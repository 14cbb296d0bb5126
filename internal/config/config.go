// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// EnvPrefix prefixes every environment variable, e.g. CSIAUDIT_OUTPUT_DIR.
const EnvPrefix = "CSIAUDIT"

// DotEnvFile is read from the working directory when present. Variables
// already set in the environment are not overridden.
const DotEnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	Input     string          `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Readiness ReadinessConfig `mapstructure:"readiness"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Watch     WatchConfig     `mapstructure:"watch"`
	OSM       OSMConfig       `mapstructure:"osm"`
}

// OutputConfig selects where and what is written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Narrative   bool   `mapstructure:"narrative"`    // report.md
	YAMLSummary bool   `mapstructure:"yaml_summary"` // summary.yaml
}

// ReadinessConfig names the volumetric-unit layer and its elevation fields.
type ReadinessConfig struct {
	Layer  string                `mapstructure:"layer"`
	Fields ReadinessFieldsConfig `mapstructure:"fields"`
}

// ReadinessFieldsConfig maps elevation roles to field names.
type ReadinessFieldsConfig struct {
	Eave   string `mapstructure:"eave"`
	Ground string `mapstructure:"ground"`
	Height string `mapstructure:"height"`
}

// Domain converts the readiness section to its domain form.
func (r ReadinessConfig) Domain() domain.ReadinessConfig {
	return domain.ReadinessConfig{
		LayerName: r.Layer,
		Fields: domain.ReadinessFields{
			Eave:   r.Fields.Eave,
			Ground: r.Fields.Ground,
			Height: r.Fields.Height,
		},
	}
}

// AuditConfig holds attribute audit options.
type AuditConfig struct {
	ZeroAsMissing []string `mapstructure:"zero_as_missing"` // Extra fields where 0 means missing
	TopMissing    int      `mapstructure:"top_missing"`     // Fields per layer in report.md
}

// DatasetConfig holds dataset reading options.
type DatasetConfig struct {
	ShapefileCharset string `mapstructure:"shapefile_charset"`
}

// StorageConfig holds dataset source configuration.
type StorageConfig struct {
	Type        string      `mapstructure:"type"` // local, s3, azure, http
	CacheDir    string      `mapstructure:"cache_dir"`
	Concurrency int         `mapstructure:"concurrency"` // Parallel downloads
	Local       LocalConfig `mapstructure:"local"`
	S3          S3Config    `mapstructure:"s3"`
	Azure       AzureConfig `mapstructure:"azure"`
	HTTP        HTTPConfig  `mapstructure:"http"`
}

// Remote returns true if datasets are fetched into the cache before auditing.
func (s *StorageConfig) Remote() bool {
	return s.Type != "local" || s.Local.Path != ""
}

// LocalConfig holds local snapshot configuration. With an empty path the
// input is audited in place.
type LocalConfig struct {
	Path string `mapstructure:"path"`
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	Prefix           string `mapstructure:"prefix"`
}

// HTTPConfig holds HTTP download configuration.
type HTTPConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	IndexFile string        `mapstructure:"index_file"` // default: index.txt
	Timeout   time.Duration `mapstructure:"timeout"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Textfile       string `mapstructure:"textfile"`        // Relative paths resolve against output.dir
	PushgatewayURL string `mapstructure:"pushgateway_url"` // Optional
	Job            string `mapstructure:"job"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// OSMConfig holds Overpass survey configuration.
type OSMConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`       // HTTP timeout per query
	QueryTimeout time.Duration `mapstructure:"query_timeout"` // Server-side [timeout:N]
	Area         string        `mapstructure:"area"`
	BBox         string        `mapstructure:"bbox"` // south,west,north,east
	Output       string        `mapstructure:"output"`
}

// Defaults sets the default configuration values.
func Defaults() {
	// Input and output defaults
	viper.SetDefault("input", "")
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("output.narrative", false)
	viper.SetDefault("output.yaml_summary", false)

	// Readiness defaults
	viper.SetDefault("readiness.layer", domain.DefaultReadinessLayer)
	viper.SetDefault("readiness.fields.eave", domain.DefaultEaveField)
	viper.SetDefault("readiness.fields.ground", domain.DefaultGroundField)
	viper.SetDefault("readiness.fields.height", domain.DefaultHeightField)

	// Audit defaults
	viper.SetDefault("audit.zero_as_missing", []string{})
	viper.SetDefault("audit.top_missing", 5)
	viper.SetDefault("dataset.shapefile_charset", "UTF-8")

	// Storage defaults
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.cache_dir", "./.csiaudit-cache")
	viper.SetDefault("storage.concurrency", 4)
	viper.SetDefault("storage.http.index_file", "index.txt")
	viper.SetDefault("storage.http.timeout", 5*time.Minute)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.textfile", "metrics.prom")
	viper.SetDefault("metrics.job", "csiaudit")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Watch defaults
	viper.SetDefault("watch.debounce", 2*time.Second)

	// OSM defaults
	viper.SetDefault("osm.url", "https://overpass-api.de/api/interpreter")
	viper.SetDefault("osm.timeout", 180*time.Second)
	viper.SetDefault("osm.query_timeout", 120*time.Second)
	viper.SetDefault("osm.area", "c7_bbox")
	viper.SetDefault("osm.bbox", "45.08,7.68,45.10,7.71")
	viper.SetDefault("osm.output", "osm_height_summary.csv")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	// Environment variable binding
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/csiaudit")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Validate validates the settings shared by every command.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return &domain.ConfigError{Field: "output.dir", Message: "output directory is required"}
	}

	if c.Readiness.Layer == "" {
		return &domain.ConfigError{Field: "readiness.layer", Message: "layer name is required"}
	}
	if err := c.Readiness.Domain().Fields.Validate(); err != nil {
		return err
	}

	if c.Audit.TopMissing < 1 {
		return &domain.ConfigError{
			Field:   "audit.top_missing",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Audit.TopMissing),
		}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return &domain.ConfigError{Field: "logging.format", Message: "must be json or text"}
	}

	if c.Watch.Debounce < 0 {
		return &domain.ConfigError{
			Field:   "watch.debounce",
			Message: fmt.Sprintf("must not be negative, got %s", c.Watch.Debounce),
		}
	}

	if c.Metrics.Enabled && c.Metrics.Textfile == "" && c.Metrics.PushgatewayURL == "" {
		return &domain.ConfigError{Field: "metrics", Message: "enabled but neither textfile nor pushgateway_url is set"}
	}

	return c.Storage.Validate()
}

// ValidateInput checks the settings needed to run an audit.
func (c *Config) ValidateInput() error {
	if c.Input == "" && !c.Storage.Remote() {
		return &domain.ConfigError{Field: "input", Message: "input path is required"}
	}
	return nil
}

// Validate validates the storage section.
func (s *StorageConfig) Validate() error {
	switch s.Type {
	case "local":
	case "s3":
		if s.S3.Bucket == "" {
			return &domain.ConfigError{Field: "storage.s3.bucket", Message: "S3 bucket is required"}
		}
		if s.S3.Region == "" {
			return &domain.ConfigError{Field: "storage.s3.region", Message: "S3 region is required"}
		}
	case "azure":
		if s.Azure.Container == "" {
			return &domain.ConfigError{Field: "storage.azure.container", Message: "azure container is required"}
		}
		if s.Azure.ConnectionString == "" && (s.Azure.AccountName == "" || s.Azure.AccountKey == "") {
			return &domain.ConfigError{
				Field:   "storage.azure",
				Message: "connection string or account name and key are required",
			}
		}
	case "http":
		if s.HTTP.BaseURL == "" {
			return &domain.ConfigError{Field: "storage.http.base_url", Message: "HTTP base URL is required"}
		}
	default:
		return &domain.ConfigError{Field: "storage.type", Message: fmt.Sprintf("unknown storage type: %s", s.Type)}
	}

	if s.Remote() && s.CacheDir == "" {
		return &domain.ConfigError{Field: "storage.cache_dir", Message: "cache directory is required for remote storage"}
	}
	return nil
}
