package profile

import "path/filepath"

func (r *Resolver) firefoxRoots() []string {
	switch r.GOOS {
	case "darwin":
		return []string{filepath.Join(r.Home, "Library", "Application Support", "Firefox")}
	case "windows":
		if appData := r.getenv("APPDATA"); appData != "" {
			return []string{filepath.Join(appData, "Mozilla", "Firefox")}
		}
		return nil
	default:
		return []string{
			filepath.Join(r.Home, ".mozilla", "firefox"),
			filepath.Join(r.Home, "snap", "firefox", "common", ".mozilla", "firefox"),
		}
	}
}

// chromiumRoots returns the user data directories of browser, or nil for an
// unknown browser.
func (r *Resolver) chromiumRoots(browser string) []string {
	switch r.GOOS {
	case "darwin":
		base := filepath.Join(r.Home, "Library", "Application Support")
		switch browser {
		case "chrome":
			return []string{filepath.Join(base, "Google", "Chrome")}
		case "chromium":
			return []string{filepath.Join(base, "Chromium")}
		case "edge":
			return []string{filepath.Join(base, "Microsoft Edge")}
		case "brave":
			return []string{filepath.Join(base, "BraveSoftware", "Brave-Browser")}
		}
	case "windows":
		base := r.getenv("LOCALAPPDATA")
		switch browser {
		case "chrome":
			return []string{filepath.Join(base, "Google", "Chrome", "User Data")}
		case "chromium":
			return []string{filepath.Join(base, "Chromium", "User Data")}
		case "edge":
			return []string{filepath.Join(base, "Microsoft", "Edge", "User Data")}
		case "brave":
			return []string{filepath.Join(base, "BraveSoftware", "Brave-Browser", "User Data")}
		}
	default:
		base := r.getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(r.Home, ".config")
		}
		switch browser {
		case "chrome":
			return []string{
				filepath.Join(base, "google-chrome"),
				filepath.Join(base, "google-chrome-beta"),
				filepath.Join(base, "google-chrome-unstable"),
			}
		case "chromium":
			return []string{filepath.Join(base, "chromium")}
		case "edge":
			return []string{
				filepath.Join(base, "microsoft-edge"),
				filepath.Join(base, "microsoft-edge-beta"),
			}
		case "brave":
			return []string{filepath.Join(base, "BraveSoftware", "Brave-Browser")}
		}
	}
	return nil
}
