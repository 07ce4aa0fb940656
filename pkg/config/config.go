// Package config loads process configuration from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/edmunds-dev/edmunds/pkg/db"
	"github.com/edmunds-dev/edmunds/pkg/logger"
	"github.com/edmunds-dev/edmunds/pkg/redis"
)

var ErrConfigurationMissing = errors.New("config: configuration missing")

// Routing configures controller dispatch.
type Routing struct {
	Namespace         string `yaml:"namespace" env:"ROUTING_NAMESPACE"`
	DefaultController string `yaml:"default" env:"ROUTING_DEFAULT"`
	HomeController    string `yaml:"home" env:"ROUTING_HOME"`
	LoginRoute        string `yaml:"loginroute" env:"ROUTING_LOGIN_ROUTE"`
	// RedirectHalt renders redirects as a page in local environments.
	RedirectHalt bool `yaml:"redirecthalt" env:"ROUTING_REDIRECT_HALT"`
}

// Server configures the HTTP listener.
type Server struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Analytics configures request log delivery.
type Analytics struct {
	Enabled     bool          `yaml:"enabled" env:"ANALYTICS_ENABLED" envDefault:"true"`
	MaxAttempts int           `yaml:"max_attempts" env:"ANALYTICS_MAX_ATTEMPTS" envDefault:"1"`
	Retention   time.Duration `yaml:"retention" env:"ANALYTICS_RETENTION" envDefault:"2160h"`
}

// Config is the complete process configuration.
type Config struct {
	Logger    logger.Config       `yaml:"-"`
	Sentry    logger.SentryConfig `yaml:"-"`
	Database  db.Config           `yaml:"-"`
	Redis     redis.Config        `yaml:"-"`
	Routing   Routing             `yaml:"routing"`
	Server    Server              `yaml:"server"`
	Analytics Analytics           `yaml:"analytics"`
	AppName   string              `yaml:"name" env:"APP_NAME" envDefault:"Edmunds"`
	Env       string              `yaml:"env" env:"APP_ENV" envDefault:"production"`
	RootURL   string              `yaml:"root_url" env:"APP_ROOT_URL"`
}

// IsLocal reports whether the app runs in a local environment.
func (c Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local") || strings.EqualFold(c.Env, "development")
}

// Load reads path when it is non-empty, then the environment, then validates.
// Fields absent from both keep their envDefault. The routing keys have no
// default, so leaving one unset fails with ErrConfigurationMissing.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse fills v from the environment. envDefault only applies to zero fields,
// so values decoded from a file survive.
func Parse(v any) error {
	if err := env.ParseWithOptions(v, env.Options{SetDefaultsForZeroValuesOnly: true}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate reports every missing routing key as ErrConfigurationMissing.
func (c Config) Validate() error {
	var missing []string
	for key, val := range map[string]string{
		"routing.namespace":  c.Routing.Namespace,
		"routing.default":    c.Routing.DefaultController,
		"routing.home":       c.Routing.HomeController,
		"routing.loginroute": c.Routing.LoginRoute,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
}
