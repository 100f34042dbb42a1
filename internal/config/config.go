// Package config loads the towerdesk configuration from YAML with
// environment overrides.
package config

// Config is the root configuration.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Model    ModelConfig    `yaml:"model,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// AuthConfig configures bearer-credential verification.
//
// PublicKey is the PEM-encoded RS256 verification key of the identity
// provider realm. When it is empty and AllowUnverified is set, tokens are
// decoded without signature verification (development only, mirrors the
// provider-less local setup).
type AuthConfig struct {
	PublicKey       string `yaml:"publicKey,omitempty"`
	AllowUnverified bool   `yaml:"allowUnverified,omitempty"`
}

// DatabaseConfig locates the per-building data partitions.
type DatabaseConfig struct {
	DataDir string `yaml:"dataDir,omitempty"`
}

// ModelConfig configures the reasoning model boundary.
type ModelConfig struct {
	Provider       string `yaml:"provider,omitempty"` // "gemini" | "mock"
	APIKey         string `yaml:"apiKey,omitempty"`
	Model          string `yaml:"model,omitempty"`
	MaxDispatches  int    `yaml:"maxDispatches,omitempty"`
	CallTimeoutSec int    `yaml:"callTimeoutSec,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 8000,
			Bind: "127.0.0.1",
		},
		Database: DatabaseConfig{
			DataDir: "data",
		},
		Model: ModelConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			MaxDispatches:  5,
			CallTimeoutSec: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
