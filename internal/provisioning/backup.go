package provisioning

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Backup reads and writes the last successful registration-service result to
// a file, so it can be replayed when the network is unavailable.
type Backup struct {
	path string
}

// NewBackup points at <homedir>/cache/provisioning_backup.json.
func NewBackup(homedir string) *Backup {
	return &Backup{path: filepath.Join(homedir, "cache", "provisioning_backup.json")}
}

// Write persists result, overwriting any prior backup.
func (b *Backup) Write(result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o600)
}

// Read returns the last backed-up result, if the file exists and parses.
func (b *Backup) Read() (*Result, bool) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}
