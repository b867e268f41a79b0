// Package paths resolves the platform data location for the history file.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// HistoryFile returns the default history file location inside the per-OS
// user config directory (~/.config/klippy/history.json on Linux).
func HistoryFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "klippy", "history.json"), nil
}
