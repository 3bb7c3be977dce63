// File: config/config.go

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/teilomillet/promptbuilder/utils"
)

type Config struct {
	// CatalogPath is a catalog file to load instead of the embedded one.
	CatalogPath string         `env:"PROMPTBUILDER_CATALOG"`
	LogLevel    utils.LogLevel `env:"PROMPTBUILDER_LOG_LEVEL" envDefault:"WARN" validate:"gte=0,lte=4"`
	// ApplyDefaults fills missing values from field defaults before rendering.
	ApplyDefaults bool `env:"PROMPTBUILDER_APPLY_DEFAULTS" envDefault:"false"`
	// DropInactive discards values of fields hidden by their conditional.
	DropInactive bool `env:"PROMPTBUILDER_DROP_INACTIVE" envDefault:"true"`
	// StrictValues rejects submissions failing presence or type checks.
	StrictValues bool `env:"PROMPTBUILDER_STRICT_VALUES" envDefault:"false"`
	// StrictCatalog rejects catalogs with lint errors instead of logging them.
	StrictCatalog bool         `env:"PROMPTBUILDER_STRICT_CATALOG" envDefault:"false"`
	TokenModel    string       `env:"PROMPTBUILDER_TOKEN_MODEL" envDefault:"gpt-4o" validate:"required"`
	Logger        utils.Logger `validate:"-"`
}

var validate = validator.New()

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

type ConfigOption func(*Config)

func NewConfig() *Config {
	return &Config{
		LogLevel:     utils.LogLevelWarn,
		DropInactive: true,
		TokenModel:   "gpt-4o",
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func SetCatalogPath(path string) ConfigOption {
	return func(c *Config) {
		c.CatalogPath = path
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetApplyDefaults(apply bool) ConfigOption {
	return func(c *Config) {
		c.ApplyDefaults = apply
	}
}

func SetDropInactive(drop bool) ConfigOption {
	return func(c *Config) {
		c.DropInactive = drop
	}
}

func SetStrictValues(strict bool) ConfigOption {
	return func(c *Config) {
		c.StrictValues = strict
	}
}

func SetStrictCatalog(strict bool) ConfigOption {
	return func(c *Config) {
		c.StrictCatalog = strict
	}
}

func SetTokenModel(model string) ConfigOption {
	return func(c *Config) {
		c.TokenModel = model
	}
}

// SetLogger replaces the logger built from LogLevel.
func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
