// Package config loads and validates application configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A .env file in the working directory
//	3. A YAML file: --config, config.yaml or configs/config.yaml
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern VIEWERSHIP_* for namespacing:
//
//	VIEWERSHIP_SERVER_PORT=8080
//	VIEWERSHIP_LOGGING_LEVEL=debug
//	VIEWERSHIP_PATHS_EXPORTS_DIR=/srv/exports
//	VIEWERSHIP_PIPELINE_LEGACY_PERIOD=2023Jan-Jun
//
// # Path Management
//
// Relative paths resolve against Paths.BaseDir (the working directory by
// default):
//
//	paths, err := cfg.GetPaths()
//	exportPath := paths.GetExportPath("What_We_Watched_2024Jan-Jun.xlsx")
//
// # Usage
//
//	cfg, err := config.LoadFrom(configFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For tests, Default returns a configuration that needs no environment.
package config
