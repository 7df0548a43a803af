package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Store kinds.
const (
	StoreFirefox  = "firefox"
	StoreChromium = "chromium"
	StoreDevtools = "devtools"
	StoreMemory   = "memory"
)

// StoreKinds lists every accepted value for Config.Store.
var StoreKinds = []string{StoreFirefox, StoreChromium, StoreDevtools, StoreMemory}

// Browsers lists the Chromium-family browsers whose profile layout is known.
var Browsers = []string{"chrome", "chromium", "edge", "brave"}

// Config holds application configuration.
type Config struct {
	// Store selects the host cookie store backend.
	Store string `json:"store,omitempty"`

	// Profile is a browser profile name, or an explicit path to a cookie database.
	// Empty means the browser's default profile.
	Profile string `json:"profile,omitempty"`

	// Browser picks the Chromium-family browser when Store is "chromium".
	Browser string `json:"browser,omitempty"`

	// DevtoolsURL is the remote debugging endpoint used by the devtools store.
	DevtoolsURL string `json:"devtools_url,omitempty"`

	// FixturePath seeds the memory store from a JSON array of cookie records.
	FixturePath string `json:"fixture_path,omitempty"`

	// PageSize is the default number of inventory rows per page.
	PageSize int `json:"page_size,omitempty"`

	// LogLevel is one of debug, info, warn, error, off.
	LogLevel string `json:"log_level,omitempty"`

	// LogFile enables a rotating file sink in addition to stderr.
	LogFile string `json:"log_file,omitempty"`

	// LogMaxSizeMB and LogMaxBackups tune log rotation. 0 means logger defaults.
	LogMaxSizeMB  int `json:"log_max_size_mb,omitempty"`
	LogMaxBackups int `json:"log_max_backups,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store:       StoreFirefox,
		Browser:     "chrome",
		DevtoolsURL: "http://127.0.0.1:9222",
		PageSize:    25,
		LogLevel:    "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.crumbs.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.crumbs) and repo (.crumbs) directories.
// Repo config is found by walking upward from startDir to find the nearest .crumbs/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .crumbs/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".crumbs", "config.json")
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

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if !slices.Contains(StoreKinds, c.Store) {
		return fmt.Errorf("store must be one of %s, got %q", strings.Join(StoreKinds, ", "), c.Store)
	}
	if c.Store == StoreChromium && !slices.Contains(Browsers, c.Browser) {
		return fmt.Errorf("browser must be one of %s, got %q", strings.Join(Browsers, ", "), c.Browser)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
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
	return &Config{
		Store:         pickString(base.Store, overlay.Store),
		Profile:       pickString(base.Profile, overlay.Profile),
		Browser:       pickString(base.Browser, overlay.Browser),
		DevtoolsURL:   pickString(base.DevtoolsURL, overlay.DevtoolsURL),
		FixturePath:   pickString(base.FixturePath, overlay.FixturePath),
		PageSize:      pickInt(base.PageSize, overlay.PageSize),
		LogLevel:      pickString(base.LogLevel, overlay.LogLevel),
		LogFile:       pickString(base.LogFile, overlay.LogFile),
		LogMaxSizeMB:  pickInt(base.LogMaxSizeMB, overlay.LogMaxSizeMB),
		LogMaxBackups: pickInt(base.LogMaxBackups, overlay.LogMaxBackups),
		DisabledTools: mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}
}

func pickString(base, overlay string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range slices.Concat(a, b) {
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
