package application

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "gg"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the gg configuration directory path,
// creating it if necessary.
// Linux: ~/.config/gg (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Roaming\gg
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, nil
}

func lazyLoad() {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)

	if err := os.MkdirAll(appDir, 0o755); err != nil {
		errDir = fmt.Errorf("failed to create config directory: %w", err)
	}
}
