// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SKIGRID_"

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `toml:"schedule"`
	Storage  StorageConfig  `toml:"storage"`
	Role     RoleConfig     `toml:"role"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// ScheduleConfig holds the grid and placement settings.
type ScheduleConfig struct {
	DayStart        string `toml:"day_start"`        // e.g., "09:00"
	DayEnd          string `toml:"day_end"`          // e.g., "17:00"
	SlotMinutes     int    `toml:"slot_minutes"`     // grid granularity
	LeadHours       int    `toml:"lead_hours"`       // non-bookable hours shown before day_start
	TrailHours      int    `toml:"trail_hours"`      // non-bookable hours shown after day_end
	MinDuration     int    `toml:"min_duration"`     // minutes
	MaxDuration     int    `toml:"max_duration"`     // minutes
	PendingAbsences string `toml:"pending_absences"` // "block" or "warn"
	WeekStart       string `toml:"week_start"`       // "monday" or "sunday"
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// RoleConfig describes the acting user.
type RoleConfig struct {
	Privileged     bool   `toml:"privileged"`
	SelfResourceID string `toml:"self_resource_id"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// LogConfig holds logging settings. An empty file disables logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			DayStart:        timegrid.DefaultDayStart,
			DayEnd:          timegrid.DefaultDayEnd,
			SlotMinutes:     timegrid.DefaultSlotMinutes,
			LeadHours:       timegrid.DefaultLeadMinutes / 60,
			TrailHours:      timegrid.DefaultTrailMinutes / 60,
			MinDuration:     timegrid.DefaultMinDuration,
			MaxDuration:     timegrid.DefaultMaxDuration,
			PendingAbsences: string(conflict.PendingBlock),
			WeekStart:       "monday",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "skigrid.db"
	}
	return filepath.Join(home, ".local", "share", "skigrid", "skigrid.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "skigrid", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies
// env overrides. Variables from a .env file in the working directory count
// as environment unless the process already sets them.
func LoadFrom(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	lookup, err := envLookup(envFile)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// envLookup returns a lookup that prefers the process environment and falls
// back to the dotenv file.
func envLookup(envFile string) (func(string) string, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = vars
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := getenv(EnvPrefix + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s must be an integer, got %q", EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}

	// Schedule overrides
	str("DAY_START", &cfg.Schedule.DayStart)
	str("DAY_END", &cfg.Schedule.DayEnd)
	str("PENDING_ABSENCES", &cfg.Schedule.PendingAbsences)
	str("WEEK_START", &cfg.Schedule.WeekStart)
	for name, dst := range map[string]*int{
		"SLOT_MINUTES": &cfg.Schedule.SlotMinutes,
		"LEAD_HOURS":   &cfg.Schedule.LeadHours,
		"TRAIL_HOURS":  &cfg.Schedule.TrailHours,
		"MIN_DURATION": &cfg.Schedule.MinDuration,
		"MAX_DURATION": &cfg.Schedule.MaxDuration,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	// Storage overrides
	str("DB_PATH", &cfg.Storage.DBPath)

	// Role overrides
	if v := getenv(EnvPrefix + "PRIVILEGED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPRIVILEGED must be a boolean, got %q", EnvPrefix, v)
		}
		cfg.Role.Privileged = b
	}
	str("SELF_RESOURCE_ID", &cfg.Role.SelfResourceID)

	// UI overrides
	str("UI_THEME", &cfg.UI.Theme)

	// Log overrides
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Schedule.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Schedule.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Schedule.LeadHours < 0 || c.Schedule.TrailHours < 0 {
		return errors.New("lead_hours and trail_hours must not be negative")
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	if _, ok := conflict.ParsePendingPolicy(c.Schedule.PendingAbsences); !ok {
		return fmt.Errorf("pending_absences must be block or warn, got %q", c.Schedule.PendingAbsences)
	}
	if _, ok := weekStarts[strings.ToLower(c.Schedule.WeekStart)]; !ok {
		return fmt.Errorf("week_start must be monday or sunday, got %q", c.Schedule.WeekStart)
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if _, err := timegrid.ParseClock(t); err != nil {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

var weekStarts = map[string]time.Weekday{
	"monday": time.Monday,
	"sunday": time.Sunday,
}

// WeekStart returns the first day of the displayed week.
func (c *Config) WeekStart() time.Weekday {
	if d, ok := weekStarts[strings.ToLower(c.Schedule.WeekStart)]; ok {
		return d
	}
	return time.Monday
}

// Grid builds the time grid described by the schedule section.
func (c *Config) Grid() (timegrid.Grid, error) {
	g, err := timegrid.New(timegrid.Config{
		DayStart:     c.Schedule.DayStart,
		DayEnd:       c.Schedule.DayEnd,
		SlotMinutes:  c.Schedule.SlotMinutes,
		LeadMinutes:  c.Schedule.LeadHours * 60,
		TrailMinutes: c.Schedule.TrailHours * 60,
		MinDuration:  c.Schedule.MinDuration,
		MaxDuration:  c.Schedule.MaxDuration,
		DurationStep: timegrid.DefaultDurationStep,
	})
	if err != nil {
		return timegrid.Grid{}, fmt.Errorf("schedule: %w", err)
	}
	return g, nil
}

// Engine builds the conflict engine for this configuration.
func (c *Config) Engine(logger *zap.Logger) (*conflict.Engine, error) {
	g, err := c.Grid()
	if err != nil {
		return nil, err
	}
	policy, ok := conflict.ParsePendingPolicy(c.Schedule.PendingAbsences)
	if !ok {
		return nil, fmt.Errorf("unknown pending_absences policy %q", c.Schedule.PendingAbsences)
	}
	return conflict.NewEngine(g, conflict.WithPendingPolicy(policy), conflict.WithLogger(logger)), nil
}

// ActingRole returns the role of the configured user.
func (c *Config) ActingRole() schedule.Role {
	return schedule.Role{
		Privileged:     c.Role.Privileged,
		SelfResourceID: c.Role.SelfResourceID,
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
