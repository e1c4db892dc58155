package config

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type HistogramConfig struct {
	WindowSize    int `mapstructure:"window_size"`
	ReservoirSize int `mapstructure:"reservoir_size"`
}

type ExportConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type DemoConfig struct {
	Workers        int    `mapstructure:"workers"`
	Duration       string `mapstructure:"duration"`
	ReportInterval string `mapstructure:"report_interval"`
}

type Config struct {
	Environment string          `mapstructure:"environment"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Histogram   HistogramConfig `mapstructure:"histogram"`
	Export      ExportConfig    `mapstructure:"export"`
	Demo        DemoConfig      `mapstructure:"demo"`
}

// Default returns the configuration Load produces without a file or
// environment overrides.
func Default() *Config {
	return &Config{
		Environment: EnvDev,
		Logging:     LoggingConfig{Level: LogLevelInfo},
		Histogram: HistogramConfig{
			WindowSize:    histogram.DefaultWindowSize,
			ReservoirSize: histogram.DefaultReservoirSize,
		},
		Export: ExportConfig{Namespace: "app"},
		Demo: DemoConfig{
			Workers:        4,
			Duration:       "30s",
			ReportInterval: "5s",
		},
	}
}

func Load() (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("environment", def.Environment)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("histogram.window_size", def.Histogram.WindowSize)
	v.SetDefault("histogram.reservoir_size", def.Histogram.ReservoirSize)
	v.SetDefault("export.namespace", def.Export.Namespace)
	v.SetDefault("demo.workers", def.Demo.Workers)
	v.SetDefault("demo.duration", def.Demo.Duration)
	v.SetDefault("demo.report_interval", def.Demo.ReportInterval)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Histogram,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HistogramConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HistogramConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.WindowSize, validation.Required, validation.Min(1)),
					validation.Field(&hc.ReservoirSize, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Export,
			validation.By(func(value interface{}) error {
				ec, ok := value.(ExportConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an ExportConfig")
				}
				return validation.ValidateStruct(&ec,
					validation.Field(&ec.Namespace, validation.Match(metricNamePattern)),
				)
			}),
		),
		validation.Field(&c.Demo,
			validation.Required,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DemoConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DemoConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.Workers, validation.Required, validation.Min(1)),
					validation.Field(&dc.Duration, validation.Required, validation.By(validateDuration)),
					validation.Field(&dc.ReportInterval, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
	)
}

// RunFor is the parsed demo duration. It is zero for an unvalidated config.
func (d DemoConfig) RunFor() time.Duration {
	dur, _ := time.ParseDuration(d.Duration)
	return dur
}

// ReportEvery is the parsed report interval. It is zero for an unvalidated config.
func (d DemoConfig) ReportEvery() time.Duration {
	dur, _ := time.ParseDuration(d.ReportInterval)
	return dur
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_nonpositive_duration", "must be greater than zero")
	}

	return nil
}
