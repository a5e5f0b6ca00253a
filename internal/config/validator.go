package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	lgreperrors "github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/types"
)

// typeNamePattern restricts user type names to what the CLI and the MCP tool can pass back in
var typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_+-]+$`)

// Validator validates configuration and sets defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return lgreperrors.NewConfigError("search", "", err)
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return lgreperrors.NewConfigError("exclude", pattern, errors.New("malformed glob"))
		}
	}

	for name, exts := range cfg.Types {
		if !typeNamePattern.MatchString(name) {
			return lgreperrors.NewConfigError("types", name, errors.New("type names may only contain letters, digits, '_', '+' and '-'"))
		}
		if len(exts) == 0 {
			return lgreperrors.NewConfigError("types", name, errors.New("at least one extension is required"))
		}
	}

	v.setDefaults(cfg)
	return nil
}

// validateSearchConfig validates search configuration
func (v *Validator) validateSearchConfig(search *Search) error {
	if search.HeadLimit < 0 {
		return fmt.Errorf("head_limit cannot be negative, got %d", search.HeadLimit)
	}

	if search.TimeoutSec < 0 {
		return fmt.Errorf("timeout_sec cannot be negative, got %s", strconv.FormatFloat(search.TimeoutSec, 'f', -1, 64))
	}

	if search.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative, got %d", search.MaxFileSize)
	}

	return nil
}

// setDefaults fills in values left at zero
func (v *Validator) setDefaults(cfg *Config) {
	if cfg.Search.MaxFileSize == 0 {
		cfg.Search.MaxFileSize = types.DefaultMaxFileSize
	}
	if cfg.Types == nil {
		cfg.Types = map[string][]string{}
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
