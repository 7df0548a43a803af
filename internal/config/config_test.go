package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.Store != def.Store || cfg.PageSize != def.PageSize || cfg.DevtoolsURL != def.DevtoolsURL {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, def)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"store": "chromium", "browser": "brave", "page_size": 10}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store != StoreChromium {
		t.Errorf("Store = %q, want chromium", cfg.Store)
	}
	if cfg.Browser != "brave" {
		t.Errorf("Browser = %q, want brave", cfg.Browser)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["cookie_delete_all", " cookie_delete_domains "]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[1] != "cookie_delete_domains" {
		t.Errorf("DisabledTools[1] = %q, want trimmed name", cfg.DisabledTools[1])
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"store": "chromium", "page_size": 50, "disabled_tools": ["cookie_delete_all"]}`)
	writeConfig(t, filepath.Join(repoRoot, ".crumbs"), `{"store": "memory", "disabled_tools": ["cookie_delete_domains"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want memory (repo override)", cfg.Store)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50 (global)", cfg.PageSize)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 merged entries", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.Store != StoreFirefox {
		t.Errorf("Store = %q, want firefox", cfg.Store)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, filepath.Join(tmpDir, ".crumbs"), `{"fixture_path": "/tmp/cookies.json"}`)

	subdir := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.FixturePath != "/tmp/cookies.json" {
		t.Errorf("FixturePath = %q, want repo value", cfg.FixturePath)
	}
}

func TestFindRepoConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, filepath.Join(tmpDir, ".crumbs"), `{}`)
	deeper := filepath.Join(tmpDir, "x", "y")
	if err := os.MkdirAll(deeper, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"current dir", tmpDir, configPath},
		{"parent dir", deeper, configPath},
		{"not found", t.TempDir(), ""},
		{"empty start", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindRepoConfig(tt.start); got != tt.want {
				t.Errorf("FindRepoConfig(%q) = %q, want %q", tt.start, got, tt.want)
			}
		})
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{Store: StoreFirefox, PageSize: 25, LogMaxBackups: 5}
	overlay := &Config{Store: StoreDevtools, PageSize: 0, LogLevel: "  "}

	result := Merge(base, overlay)

	if result.Store != StoreDevtools {
		t.Errorf("Store = %q, want devtools (overlay)", result.Store)
	}
	if result.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25 (base, overlay is zero)", result.PageSize)
	}
	if result.LogMaxBackups != 5 {
		t.Errorf("LogMaxBackups = %d, want 5", result.LogMaxBackups)
	}
	if result.LogLevel != "" {
		t.Errorf("LogLevel = %q, blank overlay should not win", result.LogLevel)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"cookie_delete_all", "cookie_list"}}
	overlay := &Config{DisabledTools: []string{"cookie_list", "cookie_delete_domains", ""}}

	result := Merge(base, overlay)

	want := []string{"cookie_delete_all", "cookie_list", "cookie_delete_domains"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory store", func(c *Config) { c.Store = StoreMemory }, false},
		{"unknown store", func(c *Config) { c.Store = "safari" }, true},
		{"chromium with edge", func(c *Config) { c.Store = StoreChromium; c.Browser = "edge" }, false},
		{"chromium with unknown browser", func(c *Config) { c.Store = StoreChromium; c.Browser = "opera" }, true},
		{"negative page size", func(c *Config) { c.PageSize = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
