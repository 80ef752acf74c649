package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST" default:"127.0.0.1"`
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"viewership.log"`
}

// PathsConfig contains file system locations. Relative entries resolve
// against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	LockFile   string `yaml:"lock_file" envconfig:"LOCK_FILE" default:".viewership.lock"`
}

// PipelineConfig controls how exports are read
type PipelineConfig struct {
	// LegacyPeriod is the period token of the one export that carries an
	// Engagement tab instead of Film and TV tabs.
	LegacyPeriod   string `yaml:"legacy_period" envconfig:"LEGACY_PERIOD" default:"2023Jan-Jun" validate:"required"`
	PeriodPattern  string `yaml:"period_pattern" envconfig:"PERIOD_PATTERN" validate:"required"`
	UploadPattern  string `yaml:"upload_pattern" envconfig:"UPLOAD_PATTERN" validate:"required"`
	ExportExt      string `yaml:"export_ext" envconfig:"EXPORT_EXT" default:".xlsx" validate:"required"`
	BannerRows     int    `yaml:"banner_rows" envconfig:"BANNER_ROWS" default:"5" validate:"gte=0"`
	SkipTempPrefix string `yaml:"skip_temp_prefix" envconfig:"SKIP_TEMP_PREFIX" default:"~$"`
}

// CacheConfig controls the in-process corpus cache
type CacheConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"true"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"viewership"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED" default:"false"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// Load loads configuration from the default file locations and the environment
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from the given YAML file (or the default
// locations when empty), an optional .env file and VIEWERSHIP_* variables.
// Environment values win over file values.
func LoadFrom(configFile string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, envSet)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envSet reports whether a VIEWERSHIP_* variable was set explicitly
func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// mergeConfigs overlays file values onto the env-derived config. A field
// keeps its env value only when the variable was set explicitly; otherwise
// a non-zero file value replaces the envconfig default.
func mergeConfigs(fileConfig, envConfig Config, isSet func(string) bool) Config {
	str := func(dst *string, src, key string) {
		if src != "" && !isSet(key) {
			*dst = src
		}
	}
	num := func(dst *int, src int, key string) {
		if src != 0 && !isSet(key) {
			*dst = src
		}
	}
	dur := func(dst *time.Duration, src time.Duration, key string) {
		if src != 0 && !isSet(key) {
			*dst = src
		}
	}

	str(&envConfig.Server.Host, fileConfig.Server.Host, "SERVER_HOST")
	num(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	dur(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	dur(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	dur(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	dur(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	if fileConfig.Server.MaxUploadBytes != 0 && !isSet("SERVER_MAX_UPLOAD_BYTES") {
		envConfig.Server.MaxUploadBytes = fileConfig.Server.MaxUploadBytes
	}
	if fileConfig.Server.RateLimit.RPS != 0 && !isSet("SERVER_RATE_LIMIT_RPS") {
		envConfig.Server.RateLimit.RPS = fileConfig.Server.RateLimit.RPS
	}
	num(&envConfig.Server.RateLimit.Burst, fileConfig.Server.RateLimit.Burst, "SERVER_RATE_LIMIT_BURST")

	str(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	str(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	str(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	str(&envConfig.Paths.BaseDir, fileConfig.Paths.BaseDir, "PATHS_BASE_DIR")
	str(&envConfig.Paths.ExportsDir, fileConfig.Paths.ExportsDir, "PATHS_EXPORTS_DIR")
	str(&envConfig.Paths.ReportsDir, fileConfig.Paths.ReportsDir, "PATHS_REPORTS_DIR")
	str(&envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, "PATHS_LOGS_DIR")
	str(&envConfig.Paths.LockFile, fileConfig.Paths.LockFile, "PATHS_LOCK_FILE")

	str(&envConfig.Pipeline.LegacyPeriod, fileConfig.Pipeline.LegacyPeriod, "PIPELINE_LEGACY_PERIOD")
	str(&envConfig.Pipeline.PeriodPattern, fileConfig.Pipeline.PeriodPattern, "PIPELINE_PERIOD_PATTERN")
	str(&envConfig.Pipeline.UploadPattern, fileConfig.Pipeline.UploadPattern, "PIPELINE_UPLOAD_PATTERN")
	str(&envConfig.Pipeline.ExportExt, fileConfig.Pipeline.ExportExt, "PIPELINE_EXPORT_EXT")
	num(&envConfig.Pipeline.BannerRows, fileConfig.Pipeline.BannerRows, "PIPELINE_BANNER_ROWS")

	str(&envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	str(&envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")

	return envConfig
}

// applyDefaults fills values envconfig cannot express as struct tags
func (c *Config) applyDefaults() {
	if c.Pipeline.PeriodPattern == "" {
		c.Pipeline.PeriodPattern = PeriodPattern
	}
	if c.Pipeline.UploadPattern == "" {
		c.Pipeline.UploadPattern = UploadPattern
	}
	if c.Paths.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Paths.BaseDir = wd
		} else {
			c.Paths.BaseDir = "."
		}
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	compiled := make(map[string]*regexp.Regexp, 2)
	for name, pattern := range map[string]string{
		"pipeline.period_pattern": c.Pipeline.PeriodPattern,
		"pipeline.upload_pattern": c.Pipeline.UploadPattern,
	} {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if re.NumSubexp() < 2 {
			return fmt.Errorf("%s must capture the year and the half", name)
		}
		compiled[name] = re
	}

	if !compiled["pipeline.period_pattern"].MatchString(c.Pipeline.LegacyPeriod) {
		return fmt.Errorf("legacy period %q does not match the period pattern", c.Pipeline.LegacyPeriod)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "viewership.log",
		},
		Paths: PathsConfig{
			ExportsDir: DefaultExportsDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
			LockFile:   DefaultLockFile,
		},
		Pipeline: PipelineConfig{
			LegacyPeriod:   DefaultLegacyPeriod,
			ExportExt:      ExportExtension,
			BannerRows:     BannerRows,
			SkipTempPrefix: TempFilePrefix,
		},
		Cache: CacheConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			ServiceName:    "viewership",
			Environment:    "development",
			MetricsEnabled: true,
		},
	}
	cfg.applyDefaults()
	return cfg
}
