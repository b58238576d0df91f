package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hpungsan/snapper/internal/errors"
)

// Environment variables that override file configuration.
const (
	EnvDir       = "SNAPPER_SCREENSHOT_DIR"
	EnvPurge     = "SNAPPER_SCREENSHOT_PURGE"
	EnvTokenHost = "SNAPPER_SCREENSHOT_TOKEN_HOST"
)

// Default filename patterns.
const (
	DefaultFilenamePattern       = "{datetime:U}.{feature_file}.feature_{step_line}.{ext}"
	DefaultFilenamePatternFailed = "{datetime:U}.{failed_prefix}{feature_file}.feature_{step_line}.{ext}"
)

// Known fullscreen algorithms and info types.
var (
	Algorithms = []string{"resize", "stitch"}
	InfoTypes  = []string{"url", "feature", "step", "datetime"}
)

// Config holds application configuration.
type Config struct {
	// Dir is the artifact directory. Relative paths resolve against the working directory.
	Dir string `json:"dir"`

	// Fail enables captures of failed steps. Defaults to true.
	Fail *bool `json:"fail,omitempty"`

	// FailPrefix is substituted for {fail_prefix} and {failed_prefix}.
	FailPrefix string `json:"fail_prefix"`

	// Purge clears files in Dir once per process before the first capture.
	Purge bool `json:"purge,omitempty"`

	// AlwaysFullscreen makes every capture a full-page capture.
	AlwaysFullscreen bool `json:"always_fullscreen,omitempty"`

	// FullscreenAlgorithm is "resize" or "stitch".
	FullscreenAlgorithm string `json:"fullscreen_algorithm"`

	// StitchFallback retries a failed stitch composition with the resize algorithm.
	StitchFallback bool `json:"stitch_fallback,omitempty"`

	FilenamePattern       string `json:"filename_pattern"`
	FilenamePatternFailed string `json:"filename_pattern_failed"`

	// InfoTypes lists the info lines prepended to content artifacts.
	// Known types: "url", "feature", "step", "datetime".
	InfoTypes []string `json:"info_types,omitempty"`

	// TokenHost replaces the URL host seen by {url} tokens.
	TokenHost string `json:"token_host,omitempty"`

	// ShowPath logs the path of every written artifact.
	ShowPath bool `json:"show_path,omitempty"`

	// SettleDelayMs is the wait after each stitch scroll.
	SettleDelayMs int `json:"settle_delay_ms"`

	// WindowWidth and WindowHeight are applied when a browser session starts.
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`

	// CDPURL attaches to a running browser instead of launching one.
	CDPURL string `json:"cdp_url,omitempty"`

	// Headless launches the browser without a window. Defaults to true.
	Headless *bool `json:"headless,omitempty"`

	// ActionTimeoutSeconds bounds every browser round-trip.
	ActionTimeoutSeconds int `json:"action_timeout_seconds"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:                   "screenshots",
		Fail:                  boolPtr(true),
		FailPrefix:            "failed_",
		FullscreenAlgorithm:   "resize",
		FilenamePattern:       DefaultFilenamePattern,
		FilenamePatternFailed: DefaultFilenamePatternFailed,
		SettleDelayMs:         200,
		WindowWidth:           1440,
		WindowHeight:          900,
		Headless:              boolPtr(true),
		ActionTimeoutSeconds:  30,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.snapper.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.snapper) and repo (.snapper) directories.
// Repo config is found by walking upward from startDir to find the nearest .snapper/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .snapper/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".snapper", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Dir = mergeString(base.Dir, overlay.Dir)
	result.FailPrefix = mergeString(base.FailPrefix, overlay.FailPrefix)
	result.FullscreenAlgorithm = mergeString(base.FullscreenAlgorithm, overlay.FullscreenAlgorithm)
	result.FilenamePattern = mergeString(base.FilenamePattern, overlay.FilenamePattern)
	result.FilenamePatternFailed = mergeString(base.FilenamePatternFailed, overlay.FilenamePatternFailed)
	result.TokenHost = mergeString(base.TokenHost, overlay.TokenHost)
	result.CDPURL = mergeString(base.CDPURL, overlay.CDPURL)

	result.SettleDelayMs = mergeInt(base.SettleDelayMs, overlay.SettleDelayMs)
	result.WindowWidth = mergeInt(base.WindowWidth, overlay.WindowWidth)
	result.WindowHeight = mergeInt(base.WindowHeight, overlay.WindowHeight)
	result.ActionTimeoutSeconds = mergeInt(base.ActionTimeoutSeconds, overlay.ActionTimeoutSeconds)
	result.DBMaxOpenConns = mergeInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = mergeInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	// Tri-state booleans: overlay wins if set
	result.Fail = base.Fail
	if overlay.Fail != nil {
		result.Fail = overlay.Fail
	}
	result.Headless = base.Headless
	if overlay.Headless != nil {
		result.Headless = overlay.Headless
	}

	// Booleans: overlay wins if true, else base
	result.Purge = base.Purge || overlay.Purge
	result.AlwaysFullscreen = base.AlwaysFullscreen || overlay.AlwaysFullscreen
	result.StitchFallback = base.StitchFallback || overlay.StitchFallback
	result.ShowPath = base.ShowPath || overlay.ShowPath

	// Arrays: merge and deduplicate
	result.InfoTypes = mergeStringSlice(base.InfoTypes, overlay.InfoTypes)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ApplyEnv overrides the directory, purge flag, and token host from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if dir := strings.TrimSpace(getenv(EnvDir)); dir != "" {
		c.Dir = dir
	}
	if raw := strings.TrimSpace(getenv(EnvPurge)); raw != "" {
		purge, err := cast.ToBoolE(raw)
		c.Purge = err != nil || purge
	}
	if host := strings.TrimSpace(getenv(EnvTokenHost)); host != "" {
		c.TokenHost = host
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if !slices.Contains(Algorithms, c.FullscreenAlgorithm) {
		return errors.NewInvalidConfig("fullscreen_algorithm",
			fmt.Sprintf("must be one of %s, got %q", strings.Join(Algorithms, ", "), c.FullscreenAlgorithm))
	}
	for _, t := range c.InfoTypes {
		if !slices.Contains(InfoTypes, t) {
			return errors.NewInvalidConfig("info_types",
				fmt.Sprintf("unknown info type %q (known: %s)", t, strings.Join(InfoTypes, ", ")))
		}
	}
	if strings.TrimSpace(c.Dir) == "" {
		return errors.NewInvalidConfig("dir", "must not be empty")
	}
	if c.FilenamePattern == "" {
		return errors.NewInvalidConfig("filename_pattern", "must not be empty")
	}
	if c.FilenamePatternFailed == "" {
		return errors.NewInvalidConfig("filename_pattern_failed", "must not be empty")
	}
	if c.WindowWidth < 0 || c.WindowHeight < 0 {
		return errors.NewInvalidConfig("window_width", "window size must not be negative")
	}
	if c.SettleDelayMs < 0 {
		return errors.NewInvalidConfig("settle_delay_ms", "must not be negative")
	}
	return nil
}

// FailEnabled reports whether failed steps are captured.
func (c *Config) FailEnabled() bool {
	return c.Fail == nil || *c.Fail
}

// HeadlessEnabled reports whether the browser runs without a window.
func (c *Config) HeadlessEnabled() bool {
	return c.Headless == nil || *c.Headless
}

// SettleDelay returns the stitch settle delay.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ActionTimeout returns the per-action browser timeout.
func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutSeconds) * time.Second
}

func boolPtr(b bool) *bool {
	return &b
}

func mergeString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func mergeInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
