package jiraconv

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/astsu-dev/jiraconv/internal/logging/gologger"
)

// Config is the configuration of a converter, filled from CLI flags.
type Config struct {
	Logging LoggingConfig
	// WarnOnUnsupported reports elements that were unwrapped or flattened.
	WarnOnUnsupported bool
}

// LoggingConfig selects the go-logger backend. An empty Level disables
// logging.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// DefaultConfig returns a configuration with logging disabled.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Format: "console",
		},
	}
}

// Validate checks the logging level and format names.
func (cfg Config) Validate() error {
	logging := cfg.Logging
	err := validation.ValidateStruct(&logging,
		validation.Field(&logging.Level, validation.By(func(value any) error {
			level := value.(string)
			if strings.TrimSpace(level) != "" && gologger.NormalizeLevel(level) == "" {
				return validation.NewError("jiraconv.logging.level_unknown", "must be one of trace, debug, info, warn, error, fatal")
			}
			return nil
		})),
		validation.Field(&logging.Format, validation.By(func(value any) error {
			switch strings.ToLower(strings.TrimSpace(value.(string))) {
			case "", "console", "json", "pretty":
				return nil
			}
			return validation.NewError("jiraconv.logging.format_unknown", "must be one of console, json, pretty")
		})),
	)
	return wrapValidationError(err, configInvalidCode, "invalid configuration")
}

// NewFromConfig validates cfg and builds a converter logging through
// go-logger when a level is set.
func NewFromConfig(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := Options{WarnOnUnsupported: cfg.WarnOnUnsupported}
	if strings.TrimSpace(cfg.Logging.Level) != "" {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
		})
		if err != nil {
			return nil, err
		}
		opts.Provider = provider
	}
	return NewConverterWithOptions(opts), nil
}
