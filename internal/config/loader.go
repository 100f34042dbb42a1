package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} references in string values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves env references in credential fields so
// keys can be stored in config as ${ENV_VAR} instead of literals.
func expandSensitiveFields(cfg *Config) {
	cfg.Model.APIKey = expandEnvVars(cfg.Model.APIKey)
	cfg.Auth.PublicKey = expandEnvVars(cfg.Auth.PublicKey)
}

// Load reads the config file, fills defaults, and applies environment
// overrides. A missing file yields defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields after unmarshalling.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = def.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = def.Gateway.Bind
	}
	if cfg.Database.DataDir == "" {
		cfg.Database.DataDir = def.Database.DataDir
	}
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = def.Model.Provider
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = def.Model.Model
	}
	if cfg.Model.MaxDispatches == 0 {
		cfg.Model.MaxDispatches = def.Model.MaxDispatches
	}
	if cfg.Model.CallTimeoutSec == 0 {
		cfg.Model.CallTimeoutSec = def.Model.CallTimeoutSec
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides reads TOWERDESK_* environment variables over config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOWERDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("TOWERDESK_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("TOWERDESK_DATA_DIR"); v != "" {
		cfg.Database.DataDir = v
	}
	if v := os.Getenv("TOWERDESK_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("TOWERDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
