// Package config provides application configuration backed by Viper:
// an optional config file, an optional .env file, environment variables
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrUnsupportedFlagType is returned by DefineFlag for a default value of an unsupported type.
var ErrUnsupportedFlagType = errors.New("unsupported flag type")

// Config wraps a Viper instance and the flag set bound to it.
type Config struct {
	v  *viper.Viper
	fs *pflag.FlagSet
}

// New creates a new Config whose flags are parsed under the given program name.
func New(name string) *Config {
	return &Config{
		v:  viper.New(),
		fs: pflag.NewFlagSet(name, pflag.ContinueOnError),
	}
}

// Load reads the configuration file (if configFilePath is set) and the .env file
// (if envFilePath is set) and enables environment variable lookup.
// With envPrefix "PGLOAD" the key "db.dsn" is read from PGLOAD_DB_DSN.
func (c *Config) Load(configFilePath, envFilePath, envPrefix string) error {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return fmt.Errorf("failed to load .env file %s: %w", envFilePath, err)
		}
	}

	if envPrefix != "" {
		c.v.SetEnvPrefix(envPrefix)
	}
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()

	if configFilePath != "" {
		c.v.SetConfigFile(configFilePath)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", configFilePath, err)
		}
	}

	return nil
}

// DefineFlag declares a flag (short and long name) and binds it to a configuration key.
// The default value is also registered as the key's default.
func (c *Config) DefineFlag(short, long, configKey string, defaultValue any, usage string) error {
	switch v := defaultValue.(type) {
	case string:
		c.fs.StringP(long, short, v, usage)
	case int:
		c.fs.IntP(long, short, v, usage)
	case bool:
		c.fs.BoolP(long, short, v, usage)
	case float64:
		c.fs.Float64P(long, short, v, usage)
	case []string:
		c.fs.StringSliceP(long, short, v, usage)
	case time.Duration:
		c.fs.DurationP(long, short, v, usage)
	default:
		return fmt.Errorf("%w: %s: %T", ErrUnsupportedFlagType, long, defaultValue)
	}
	c.v.SetDefault(configKey, defaultValue)
	return c.v.BindPFlag(configKey, c.fs.Lookup(long))
}

// ParseFlags parses the declared flags from args (without the program name).
func (c *Config) ParseFlags(args []string) error {
	return c.fs.Parse(args)
}

// Args returns the positional arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.fs.Args()
}

// GetString returns the string value of key.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns the int value of key.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool returns the bool value of key.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetDuration returns the duration value of key.
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// GetStringSlice returns the string slice value of key.
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}
