// Package profile locates browser cookie databases on disk.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/afero"

	crumbserr "github.com/hpungsan/crumbs/internal/errors"
)

// Cookie database file names.
const (
	FirefoxCookieFile  = "cookies.sqlite"
	ChromiumCookieFile = "Cookies"
)

// DefaultChromiumProfile is the profile directory Chromium browsers create first.
const DefaultChromiumProfile = "Default"

// Profile is one browser profile that holds a cookie database.
type Profile struct {
	Name     string `json:"name"`
	Dir      string `json:"dir"`
	CookieDB string `json:"cookie_db"`
	Default  bool   `json:"default,omitempty"`
}

// Resolver finds cookie databases. Fs, Home and Getenv are injectable for tests.
type Resolver struct {
	Fs     afero.Fs
	Home   string
	GOOS   string
	Getenv func(string) string
}

// NewResolver returns a Resolver over the real filesystem.
func NewResolver(goos string) *Resolver {
	home, _ := os.UserHomeDir()
	return &Resolver{Fs: afero.NewOsFs(), Home: home, GOOS: goos, Getenv: os.Getenv}
}

// Resolve returns the cookie database path for a store kind ("firefox" or
// "chromium"). profile may be a profile name, a profile directory or a database file.
func (r *Resolver) Resolve(kind, browser, profile string) (string, error) {
	profile = strings.TrimSpace(profile)
	if p, ok := r.explicitPath(profile); ok {
		return p, nil
	}
	switch kind {
	case "firefox":
		return r.FirefoxCookieDB(profile)
	case "chromium":
		return r.ChromiumCookieDB(browser, profile)
	default:
		return "", crumbserr.NewInvalidRequest(fmt.Sprintf("store %q has no cookie database", kind))
	}
}

// explicitPath accepts a database file or a directory containing one.
func (r *Resolver) explicitPath(profile string) (string, bool) {
	if profile == "" || !strings.ContainsAny(profile, `/\`) {
		return "", false
	}
	fi, err := r.Fs.Stat(profile)
	if err != nil {
		return "", false
	}
	if !fi.IsDir() {
		return profile, true
	}
	for _, name := range []string{
		FirefoxCookieFile,
		ChromiumCookieFile,
		filepath.Join("Network", ChromiumCookieFile),
	} {
		p := filepath.Join(profile, name)
		if r.isFile(p) {
			return p, true
		}
	}
	return "", false
}

// FirefoxProfiles lists the profiles in every profiles.ini that own a cookie database.
func (r *Resolver) FirefoxProfiles() ([]Profile, error) {
	var out []Profile
	for _, root := range r.firefoxRoots() {
		data, err := afero.ReadFile(r.Fs, filepath.Join(root, "profiles.ini"))
		if err != nil {
			continue
		}
		cfg, err := ini.Load(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Join(root, "profiles.ini"), err)
		}

		// Firefox 67+ records the default per install; older builds use Default=1.
		var installDefault string
		for _, sec := range cfg.Sections() {
			if strings.HasPrefix(sec.Name(), "Install") {
				if d := sec.Key("Default").String(); d != "" {
					installDefault = d
					break
				}
			}
		}

		for _, sec := range cfg.Sections() {
			if !strings.HasPrefix(sec.Name(), "Profile") {
				continue
			}
			rel := sec.Key("Path").String()
			if rel == "" {
				continue
			}
			dir := filepath.FromSlash(rel)
			if sec.Key("IsRelative").MustInt(1) == 1 {
				dir = filepath.Join(root, dir)
			}
			db := filepath.Join(dir, FirefoxCookieFile)
			if !r.isFile(db) {
				continue
			}
			isDefault := sec.Key("Default").String() == "1"
			if installDefault != "" {
				isDefault = rel == installDefault
			}
			out = append(out, Profile{
				Name:     sec.Key("Name").String(),
				Dir:      dir,
				CookieDB: db,
				Default:  isDefault,
			})
		}
	}
	return out, nil
}

// FirefoxCookieDB picks the named profile, else the default profile, else the first one found.
func (r *Resolver) FirefoxCookieDB(name string) (string, error) {
	profiles, err := r.FirefoxProfiles()
	if err != nil {
		return "", err
	}
	if name != "" {
		for _, p := range profiles {
			if p.Name == name || filepath.Base(p.Dir) == name {
				return p.CookieDB, nil
			}
		}
		return "", crumbserr.NewNotFound(fmt.Sprintf("firefox profile %q", name))
	}
	if len(profiles) == 0 {
		return "", crumbserr.NewNotFound("firefox profile with " + FirefoxCookieFile)
	}
	for _, p := range profiles {
		if p.Default {
			return p.CookieDB, nil
		}
	}
	return profiles[0].CookieDB, nil
}

// ChromiumProfiles lists the profile directories of browser that own a cookie database.
func (r *Resolver) ChromiumProfiles(browser string) ([]Profile, error) {
	roots := r.chromiumRoots(browser)
	if roots == nil {
		return nil, crumbserr.NewInvalidRequest(fmt.Sprintf("unknown browser %q", browser))
	}
	var out []Profile
	for _, root := range roots {
		entries, err := afero.ReadDir(r.Fs, root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(root, e.Name())
			if db, ok := r.chromiumDB(dir); ok {
				out = append(out, Profile{
					Name:     e.Name(),
					Dir:      dir,
					CookieDB: db,
					Default:  e.Name() == DefaultChromiumProfile,
				})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Profile) int {
		if a.Default != b.Default {
			if a.Default {
				return -1
			}
			return 1
		}
		return 0
	})
	return out, nil
}

// ChromiumCookieDB returns <root>/<profile>/Cookies or <root>/<profile>/Network/Cookies
// from the first user data directory of browser that has one.
func (r *Resolver) ChromiumCookieDB(browser, name string) (string, error) {
	roots := r.chromiumRoots(browser)
	if roots == nil {
		return "", crumbserr.NewInvalidRequest(fmt.Sprintf("unknown browser %q", browser))
	}
	if name == "" {
		name = DefaultChromiumProfile
	}
	for _, root := range roots {
		if db, ok := r.chromiumDB(filepath.Join(root, name)); ok {
			return db, nil
		}
	}
	return "", crumbserr.NewNotFound(fmt.Sprintf("%s profile %q", browser, name))
}

func (r *Resolver) chromiumDB(dir string) (string, bool) {
	for _, p := range []string{
		filepath.Join(dir, "Network", ChromiumCookieFile),
		filepath.Join(dir, ChromiumCookieFile),
	} {
		if r.isFile(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(path string) bool {
	fi, err := r.Fs.Stat(path)
	return err == nil && !fi.IsDir()
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return ""
	}
	return r.Getenv(key)
}
