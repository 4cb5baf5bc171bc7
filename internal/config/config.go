package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // reminder timezones resolve without a system zoneinfo

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all project configuration loaded from .coursebot/config.yaml
// or .coursebot/config.toml.
type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas" toml:"canvas"`
	Zulip     ZulipConfig     `yaml:"zulip" toml:"zulip"`
	Reminders RemindersConfig `yaml:"reminders" toml:"reminders"`
	Resources []Resource      `yaml:"resources,omitempty" toml:"resources,omitempty"`
	Grammar   GrammarConfig   `yaml:"grammar" toml:"grammar"`
	History   HistoryConfig   `yaml:"history" toml:"history"`
	Log       LogConfig       `yaml:"log" toml:"log"`

	path string // file the config was read from, empty for defaults
}

// CanvasConfig points at the Canvas LMS course reminders are computed for.
type CanvasConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	CourseID    string `yaml:"course_id" toml:"course_id"`
	VideoModule string `yaml:"video_module,omitempty" toml:"video_module,omitempty"` // module holding solution videos
	APIKey      string `yaml:"-" toml:"-"`                                           // never serialized, env vars only
}

// ZulipConfig holds the bot account reminders are sent from.
type ZulipConfig struct {
	Site   string `yaml:"site" toml:"site"`
	Email  string `yaml:"email" toml:"email"` // bot email
	APIKey string `yaml:"-" toml:"-"`         // never serialized, env vars only
}

// RemindersConfig controls which assignments count and who is told.
type RemindersConfig struct {
	MaxDays        int      `yaml:"max_days" toml:"max_days"`
	Timezone       string   `yaml:"timezone" toml:"timezone"`
	Groups         []string `yaml:"groups,omitempty" toml:"groups,omitempty"` // "prof", "ta", "all"
	NotifyStudents bool     `yaml:"notify_students" toml:"notify_students"`
	Concurrency    int      `yaml:"concurrency" toml:"concurrency"`
	Prof           []string `yaml:"prof,omitempty" toml:"prof,omitempty"`
	TA             []string `yaml:"ta,omitempty" toml:"ta,omitempty"`
}

// Resource is a helpful link appended to every reminder.
type Resource struct {
	Text string `yaml:"text" toml:"text" json:"text"`
	Link string `yaml:"link" toml:"link" json:"link"`
}

// GrammarConfig selects the command grammar.
type GrammarConfig struct {
	File  string `yaml:"file,omitempty" toml:"file,omitempty"` // empty for the built-in grammar
	Start string `yaml:"start" toml:"start"`
}

// HistoryConfig locates the sent-reminder log.
type HistoryConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

const (
	configDir      = ".coursebot"
	yamlConfigFile = ".coursebot/config.yaml"
	tomlConfigFile = ".coursebot/config.toml"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{VideoModule: "Video Lectures"},
		Reminders: RemindersConfig{
			MaxDays:     30,
			Timezone:    "America/New_York",
			Concurrency: 4,
		},
		Grammar: GrammarConfig{Start: "sentence"},
		History: HistoryConfig{Path: filepath.Join(configDir, "history.db")},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the project configuration from .coursebot/config.yaml, or
// .coursebot/config.toml when no YAML file exists, in the given project
// directory. If neither exists, it returns the defaults (not an error).
// Environment variables override file values; secrets come only from the
// environment.
func Load(projectDir string) (*Config, error) {
	cfg := Default()

	for _, name := range []string{yamlConfigFile, tomlConfigFile} {
		path := filepath.Join(projectDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(name, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		cfg.path = path
		break
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(projectDir)
	return cfg, nil
}

func decode(name string, data []byte, cfg *Config) error {
	if strings.HasSuffix(name, ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Path returns the file the config was read from, or "" for defaults.
func (c *Config) Path() string { return c.path }

// Save writes the config to .coursebot/config.yaml, creating the directory
// if needed. API keys are never written to disk.
func Save(projectDir string, cfg *Config) error {
	dir := filepath.Join(projectDir, configDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s directory: %w", configDir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(projectDir, yamlConfigFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", yamlConfigFile, err)
	}
	return nil
}

// applyEnv overlays environment variables onto file values.
func (c *Config) applyEnv() error {
	c.Canvas.APIKey = os.Getenv("CANVAS_API_KEY")
	c.Zulip.APIKey = os.Getenv("ZULIP_API_KEY")

	setString(&c.Canvas.BaseURL, "CANVAS_SERVER_URL")
	setString(&c.Canvas.CourseID, "CANVAS_COURSE_ID")
	setString(&c.Zulip.Site, "ZULIP_SERVER_URL")
	setString(&c.Zulip.Email, "ZULIP_EMAIL")
	setList(&c.Reminders.Prof, "PROF_EMAILS")
	setList(&c.Reminders.TA, "TA_EMAILS")
	setList(&c.Reminders.Groups, "REMINDER_GROUPS")

	if v := os.Getenv("REMINDER_MAX_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REMINDER_MAX_DAYS: %w", err)
		}
		c.Reminders.MaxDays = n
	}
	if v := os.Getenv("RESOURCES"); v != "" {
		var res []Resource
		if err := json.Unmarshal([]byte(v), &res); err != nil {
			return fmt.Errorf("RESOURCES: %w", err)
		}
		c.Resources = res
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// setList splits a comma-separated variable, dropping empty entries.
func setList(dst *[]string, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// resolvePaths makes relative file settings relative to the project.
func (c *Config) resolvePaths(projectDir string) {
	if c.Grammar.File != "" && !filepath.IsAbs(c.Grammar.File) {
		c.Grammar.File = filepath.Join(projectDir, c.Grammar.File)
	}
	if c.History.Path != "" && !filepath.IsAbs(c.History.Path) {
		c.History.Path = filepath.Join(projectDir, c.History.Path)
	}
}

// Location loads the configured reminder timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminders.timezone: %w", err)
	}
	return loc, nil
}

// Validate reports every setting the remind command needs but is missing.
func (c *Config) Validate() error {
	var errs []error
	missing := func(name, env string) {
		errs = append(errs, fmt.Errorf("%s is not set (set it in %s or %s)", name, yamlConfigFile, env))
	}

	if c.Canvas.BaseURL == "" {
		missing("canvas.base_url", "CANVAS_SERVER_URL")
	}
	if c.Canvas.CourseID == "" {
		missing("canvas.course_id", "CANVAS_COURSE_ID")
	}
	if c.Canvas.APIKey == "" {
		errs = append(errs, errors.New("no Canvas API key found. Set CANVAS_API_KEY"))
	}
	if c.Zulip.Site == "" {
		missing("zulip.site", "ZULIP_SERVER_URL")
	}
	if c.Zulip.Email == "" {
		missing("zulip.email", "ZULIP_EMAIL")
	}
	if c.Zulip.APIKey == "" {
		errs = append(errs, errors.New("no Zulip API key found. Set ZULIP_API_KEY"))
	}
	if c.Reminders.MaxDays < 0 {
		errs = append(errs, fmt.Errorf("reminders.max_days must not be negative, got %d", c.Reminders.MaxDays))
	}
	if c.Reminders.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("reminders.concurrency must be at least 1, got %d", c.Reminders.Concurrency))
	}
	for _, g := range c.Reminders.Groups {
		switch g {
		case "prof", "ta", "all":
		default:
			errs = append(errs, fmt.Errorf("reminders.groups: unknown group %q (want prof, ta or all)", g))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
