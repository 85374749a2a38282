package cleanenvport

import (
	"fmt"
	"slices"
	"time"

	"github.com/wb-go/pgbulk/logger"
)

// LoggerConfig holds logger settings.
//
// ConsoleLevel and FileLevel fall back to Level. Both outputs share one
// engine, so the effective threshold is the lowest level of the enabled outputs.
type LoggerConfig struct {
	Engine       string `json:"engine" yaml:"engine" env:"LOG_ENGINE" validate:"omitempty,oneof=zap slog zerolog logrus"`
	Level        string `json:"level" yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"required"`
	Console      bool   `json:"console" yaml:"console" env:"LOG_CONSOLE"`
	ConsoleLevel string `json:"console_level" yaml:"console_level" env:"LOG_CONSOLE_LEVEL"`
	File         bool   `json:"file" yaml:"file" env:"LOG_FILE"`
	FileLevel    string `json:"file_level" yaml:"file_level" env:"LOG_FILE_LEVEL"`
	FileDir      string `json:"file_dir" yaml:"file_dir" env:"LOG_FILE_DIR" validate:"required_if=File true"`
	FilePrefix   string `json:"file_prefix" yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// LoadLogger reads and validates a logger settings file.
func LoadLogger(path string) (LoggerConfig, error) {
	var cfg LoggerConfig
	if err := LoadPath(path, &cfg); err != nil {
		return LoggerConfig{}, err
	}
	return cfg, nil
}

// Options converts the settings into logger options. When file output is
// enabled the log directory is created and a per-run file name is chosen.
func (c LoggerConfig) Options(now time.Time) ([]logger.Option, error) {
	const op = "cleanenvport.LoggerConfig.Options"

	base, err := logger.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("%s: level: %w", op, err)
	}

	var levels []logger.Level
	opts := []logger.Option{logger.WithStdout(c.Console)}

	if c.Console {
		l, err := levelOr(c.ConsoleLevel, base)
		if err != nil {
			return nil, fmt.Errorf("%s: console_level: %w", op, err)
		}
		levels = append(levels, l)
	}

	if c.File {
		l, err := levelOr(c.FileLevel, base)
		if err != nil {
			return nil, fmt.Errorf("%s: file_level: %w", op, err)
		}
		levels = append(levels, l)

		name, err := logger.RunFileName(c.FileDir, c.FilePrefix, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, logger.WithFile(name))
	}

	level := base
	if len(levels) > 0 {
		level = slices.Min(levels)
	}

	return append(opts, logger.WithLevel(level)), nil
}

// New builds the configured logger.
func (c LoggerConfig) New(appName, env string, now time.Time) (logger.Logger, error) {
	engine, err := logger.ParseEngine(c.Engine)
	if err != nil {
		return nil, err
	}
	opts, err := c.Options(now)
	if err != nil {
		return nil, err
	}
	return logger.InitLogger(engine, appName, env, opts...)
}

func levelOr(s string, fallback logger.Level) (logger.Level, error) {
	if s == "" {
		return fallback, nil
	}
	return logger.ParseLevel(s)
}
