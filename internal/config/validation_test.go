package config

import (
	"errors"
	"testing"
	"time"
)

// validBaseConfig returns a Config with all required fields set.
func validBaseConfig() *Config {
	return &Config{
		LogLevel:         "info",
		ServerAddr:       ":8080",
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresPassword: "test_password",
		PostgresDBName:   "lessonbank",
		PostgresSSLMode:  "disable",
		ScoreInterval:    DefaultScoreInterval,
		ScoreBatchSize:   DefaultScoreBatchSize,
	}
}

// TestValidateSuccess tests successful validation of a complete config.
func TestValidateSuccess(t *testing.T) {
	cfg := validBaseConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error with valid config: %v", err)
	}
}

// TestValidateNilConfig tests that a nil config is rejected.
func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	err := cfg.Validate()
	if !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() error = %v, want ErrConfigNil", err)
	}
}

// TestValidateLogLevel tests log level validation.
func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "info"},
		{level: "warn"},
		{level: "error"},
		{level: "", wantErr: true},
		{level: "trace", wantErr: true},
		{level: "INFO", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.LogLevel = tt.level

			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLogLevel) {
					t.Errorf("Validate() error = %v, want ErrInvalidLogLevel", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error for level %q: %v", tt.level, err)
			}
		})
	}
}

// TestValidateServerAddr tests that an empty listen address is rejected.
func TestValidateServerAddr(t *testing.T) {
	cfg := validBaseConfig()
	cfg.ServerAddr = ""

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidServerAddr) {
		t.Errorf("Validate() error = %v, want ErrInvalidServerAddr", err)
	}
}

// TestValidatePostgres tests PostgreSQL configuration validation.
func TestValidatePostgres(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.PostgresPort = 0 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "empty password",
			mutate:  func(c *Config) { c.PostgresPassword = "" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "short password",
			mutate:  func(c *Config) { c.PostgresPassword = "short" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "empty ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateSSLModes tests that all modern SSL modes are accepted.
func TestValidateSSLModes(t *testing.T) {
	for _, mode := range []string{"disable", "require", "verify-ca", "verify-full"} {
		t.Run(mode, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.PostgresSSLMode = mode
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() unexpected error for sslmode %q: %v", mode, err)
			}
		})
	}
}

// TestValidateScoring tests scoring configuration validation.
func TestValidateScoring(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.ScoreInterval = 0 },
			wantErr: ErrInvalidScoreInterval,
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.ScoreInterval = -time.Hour },
			wantErr: ErrInvalidScoreInterval,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.ScoreBatchSize = 0 },
			wantErr: ErrInvalidScoreBatchSize,
		},
		{
			name:    "batch size too large",
			mutate:  func(c *Config) { c.ScoreBatchSize = MaxScoreBatchSize + 1 },
			wantErr: ErrInvalidScoreBatchSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
