// Package cleanenvport loads and validates typed configuration files
// (YAML/JSON/TOML) using cleanenv and validator. It also defines the
// connection and logger settings files used by the loader.
package cleanenvport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

var (
	// ErrConfigFileNotFound means the settings file does not exist.
	ErrConfigFileNotFound = errors.New("settings file not found")
	// ErrConfigValidation wraps the list of fields that failed validation.
	ErrConfigValidation = errors.New("invalid settings")
)

// validate checks the `validate` tags of every loaded settings struct.
var validate = validator.New()

// LoadPath reads path into cfg, applies `env` overrides and validates the
// result against its `validate` tags.
func LoadPath(path string, cfg any) error {
	const op = "cleanenvport.LoadPath"

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w: %s", op, ErrConfigFileNotFound, path)
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("%s: read %s: %w", op, path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%s: %w", op, describeValidation(err))
	}
	return nil
}

// describeValidation lists failed fields as "Field=value (tag)".
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	parts := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		parts[i] = fmt.Sprintf("%s=%v (%s)", fe.Field(), fe.Value(), fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrConfigValidation, strings.Join(parts, "; "))
}
