package workflow

import (
	"fmt"
	"os"
	"time"
)

// Config holds orchestrator settings.
type Config struct {
	// Timezone controls the local date stamped onto CRM proposal and
	// signing fields.
	Timezone string `toml:"timezone"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Timezone string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Timezone == "" {
		c.Timezone = "America/Denver"
	}
	if env != nil && env.Timezone != "" {
		if v := os.Getenv(env.Timezone); v != "" {
			c.Timezone = v
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
