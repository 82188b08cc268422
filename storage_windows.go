//go:build windows

package hfsync

import (
	"os"
	"path/filepath"
)

// getDefaultCacheDir returns the default metadata cache directory for Windows.
// Returns %LOCALAPPDATA%\<appName>\cache\
func getDefaultCacheDir(appName string) (string, error) {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		localAppData = filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(localAppData, appName, "cache"), nil
}
