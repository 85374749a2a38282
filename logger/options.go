package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for file output.
const (
	_defaultMaxSize    = 100 // MB
	_defaultMaxBackups = 7
	_defaultMaxAge     = 30 // days

	_fileTimestampLayout = "20060102_150405"
)

// GlobalConfig is the result of applying Options. The zero Filename
// disables file output.
type GlobalConfig struct {
	Level      Level
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	Stdout     bool
	// Writer receives a copy of every record when set.
	Writer io.Writer
}

// Option changes a GlobalConfig.
type Option func(*GlobalConfig)

// buildConfig applies opts over the defaults: info level, stdout on,
// compressed rotation.
func buildConfig(opts []Option) *GlobalConfig {
	cfg := &GlobalConfig{
		Level:      InfoLevel,
		MaxSize:    _defaultMaxSize,
		MaxBackups: _defaultMaxBackups,
		MaxAge:     _defaultMaxAge,
		Compress:   true,
		Stdout:     true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLevel sets the minimum log level for the logger.
func WithLevel(l Level) Option {
	return func(c *GlobalConfig) { c.Level = l }
}

// WithStdout enables or disables console output.
func WithStdout(enabled bool) Option {
	return func(c *GlobalConfig) { c.Stdout = enabled }
}

// WithWriter sends log records to w as well.
func WithWriter(w io.Writer) Option {
	return func(c *GlobalConfig) { c.Writer = w }
}

// WithRotation logs to filename, rotating at maxSize MB and keeping
// maxBackups files for at most maxAge days.
func WithRotation(filename string, maxSize, maxBackups, maxAge int) Option {
	return func(c *GlobalConfig) {
		c.Filename = filename
		c.MaxSize = maxSize
		c.MaxBackups = maxBackups
		c.MaxAge = maxAge
	}
}

// WithFile logs to filename with the default rotation settings.
func WithFile(filename string) Option {
	return func(c *GlobalConfig) { c.Filename = filename }
}

// RunFileName returns the per-run log file path
// <dir>/<prefix><YYYYmmdd_HHMMSS>_<pid>.log and creates dir if needed.
func RunFileName(dir, prefix string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("logger.RunFileName: create %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s%s_%d.log", prefix, now.Format(_fileTimestampLayout), os.Getpid())
	return filepath.Join(dir, name), nil
}

// GetWriter fans records out to every enabled output. Nothing enabled
// yields io.Discard.
func (c *GlobalConfig) GetWriter() io.Writer {
	var writers []io.Writer
	if c.Stdout {
		writers = append(writers, os.Stdout)
	}
	if c.Writer != nil {
		writers = append(writers, c.Writer)
	}
	if c.Filename != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   c.Filename,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		})
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return io.MultiWriter(writers...)
}
