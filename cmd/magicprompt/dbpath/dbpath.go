// Package dbpath locates the local transcript database.
package dbpath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar overrides the default database location.
const EnvVar = "MAGICPROMPT_DB"

// Resolve returns flagValue when set, then $MAGICPROMPT_DB, then
// ~/.magicprompt/magicprompt.db. The parent directory is created for the default.
func Resolve(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}

	dir := filepath.Join(home, ".magicprompt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "magicprompt.db"), nil
}
