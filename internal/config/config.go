// Package config loads the command-line tool's homeserver settings.
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/client"
	"github.com/broady/mxapi/id"
)

// DefaultTimeout bounds a whole request when the file sets none.
const DefaultTimeout = 30 * time.Second

// Config describes how to reach a homeserver.
type Config struct {
	Homeserver       string          `yaml:"homeserver" validate:"required,url"`
	AccessToken      string          `yaml:"access_token"`
	Versions         []mxapi.Version `yaml:"versions"`
	AppserviceUserID string          `yaml:"appservice_user_id" validate:"omitempty,startswith=@"`
	Timeout          time.Duration   `yaml:"timeout" validate:"gte=0"`
}

var validate = validator.New()

// Override adjusts loaded settings before they are validated.
type Override func(*Config)

// Load reads a YAML file. ${VAR} references are expanded from the
// environment, and MXAPI_HOMESERVER and MXAPI_ACCESS_TOKEN override the
// file's values. An empty path starts from no file. Overrides apply last.
func Load(path string, overrides ...Override) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	for _, o := range overrides {
		o(&cfg)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MXAPI_HOMESERVER"); v != "" {
		cfg.Homeserver = v
	}
	if v := os.Getenv("MXAPI_ACCESS_TOKEN"); v != "" {
		cfg.AccessToken = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.AppserviceUserID != "" {
		if _, err := id.ParseUserID(c.AppserviceUserID); err != nil {
			return fmt.Errorf("validate config: appservice_user_id: %w", err)
		}
	}
	return nil
}

// ClientOptions returns the client options these settings imply.
func (c *Config) ClientOptions() []client.Option {
	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
	}
	if c.AccessToken != "" {
		opts = append(opts, client.WithAccessToken(c.AccessToken))
	}
	if len(c.Versions) > 0 {
		opts = append(opts, client.WithVersions(c.Versions...))
	}
	if c.AppserviceUserID != "" {
		opts = append(opts, client.WithAppserviceUserID(id.UserID(c.AppserviceUserID)))
	}
	return opts
}
