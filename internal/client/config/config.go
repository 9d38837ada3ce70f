package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings for the zia CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API, e.g. "http://127.0.0.1:8000".
//   - HealthAddr: host:port of the gRPC health endpoint.
//   - RequestTimeout: upper bound for a single API call. Chat calls may take
//     a while, so the default is generous.
//   - SessionFile: SQLite file the signed-in session is kept in between runs.
//   - OnlineCheckInterval: how often the client probes server health.
type Config struct {
	ServerURL           string
	HealthAddr          string
	RequestTimeout      time.Duration
	SessionFile         string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.HealthAddr = "127.0.0.1:50051"
	c.RequestTimeout = 150 * time.Second
	c.SessionFile = "zia-session.db"
	c.OnlineCheckInterval = 5 * time.Second
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server url must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	if c.SessionFile == "" {
		errs = append(errs, errors.New("session file must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
