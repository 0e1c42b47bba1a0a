package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sessionFile names the file holding the current session identifier.
const sessionFile = "session"

// LoadSessionID returns the session identifier stored under dir, creating
// a new one when none exists. Separate CLI invocations that share the
// directory share a session, and with it the session cache.
func LoadSessionID(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}

	path := filepath.Join(dir, sessionFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id := GenerateID()
	if err := os.WriteFile(path, []byte(id), 0600); err != nil {
		return "", fmt.Errorf("failed to write session file: %w", err)
	}

	return id, nil
}

// ResetSessionID discards the stored session identifier so the next load
// starts a fresh session.
func ResetSessionID(dir string) error {
	path := filepath.Join(dir, sessionFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}
