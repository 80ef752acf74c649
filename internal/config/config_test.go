package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Server.MaxUploadBytes)
				assert.True(t, cfg.Server.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "exports", cfg.Paths.ExportsDir)
				assert.Equal(t, DefaultLegacyPeriod, cfg.Pipeline.LegacyPeriod)
				assert.Equal(t, PeriodPattern, cfg.Pipeline.PeriodPattern)
				assert.Equal(t, UploadPattern, cfg.Pipeline.UploadPattern)
				assert.Equal(t, 5, cfg.Pipeline.BannerRows)
				assert.True(t, cfg.Cache.Enabled)
				assert.NotEmpty(t, cfg.Paths.BaseDir)
			},
		},
		{
			name: "environment variables",
			env: map[string]string{
				"VIEWERSHIP_SERVER_PORT":            "9090",
				"VIEWERSHIP_LOGGING_LEVEL":          "DEBUG",
				"VIEWERSHIP_PATHS_EXPORTS_DIR":      "/srv/exports",
				"VIEWERSHIP_PIPELINE_LEGACY_PERIOD": "2022Jul-Dec",
				"VIEWERSHIP_CACHE_ENABLED":          "false",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "/srv/exports", cfg.Paths.ExportsDir)
				assert.Equal(t, "2022Jul-Dec", cfg.Pipeline.LegacyPeriod)
				assert.False(t, cfg.Cache.Enabled)
			},
		},
		{
			name: "yaml file overrides defaults",
			file: `
server:
  port: 7070
logging:
  output: both
paths:
  exports_dir: data/exports
pipeline:
  banner_rows: 4
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "data/exports", cfg.Paths.ExportsDir)
				assert.Equal(t, 4, cfg.Pipeline.BannerRows)
			},
		},
		{
			name: "environment wins over yaml file",
			env:  map[string]string{"VIEWERSHIP_SERVER_PORT": "9191"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"VIEWERSHIP_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "invalid log output",
			env:     map[string]string{"VIEWERSHIP_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "legacy period outside the period pattern",
			env:     map[string]string{"VIEWERSHIP_PIPELINE_LEGACY_PERIOD": "2023Q1"},
			wantErr: true,
		},
		{
			name:    "pattern without capture groups",
			env:     map[string]string{"VIEWERSHIP_PIPELINE_PERIOD_PATTERN": `\d{4}`},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var path string
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingExplicitFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "viewership", cfg.Telemetry.ServiceName)
	assert.Equal(t, ExportExtension, cfg.Pipeline.ExportExt)
	assert.Equal(t, TempFilePrefix, cfg.Pipeline.SkipTempPrefix)
}

func TestMergeConfigs(t *testing.T) {
	env := *Default()
	file := Config{
		Server:  ServerConfig{Port: 7000, Host: "0.0.0.0"},
		Logging: LoggingConfig{Level: "warn"},
	}

	merged := mergeConfigs(file, env, func(key string) bool { return key == "SERVER_PORT" })

	assert.Equal(t, 8080, merged.Server.Port, "explicit env value kept")
	assert.Equal(t, "0.0.0.0", merged.Server.Host)
	assert.Equal(t, "warn", merged.Logging.Level)
	assert.Equal(t, DefaultExportsDir, merged.Paths.ExportsDir, "zero file value ignored")
}

func TestRequiredColumns(t *testing.T) {
	assert.Equal(t, []string{"Film", "TV"}, RequiredSheets())
	assert.Equal(t, []string{
		"Title", "Release Date", "Runtime", "Hours Viewed", "Views", "Available Globally?",
	}, RequiredColumns())
}
