// Package hsm provides the daemon's narrow view of the hardware security
// module: master encryption key lifecycle and TPM-backed device identity
// key derivation. Both are treated as black boxes exposing only the
// signing/encryption surface the core needs; the cryptographic internals are
// out of scope.
package hsm

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/rdivossen/iotedge/internal/settings"
)

const masterKeyFile = "master.key"

// MasterEncryptionKey manages the workload encryption master key rooted at
// <homedir>/cache. It satisfies settings.MasterKeyCreator.
type MasterEncryptionKey struct {
	path string
}

// NewMasterEncryptionKey points at <homedir>/cache/master.key.
func NewMasterEncryptionKey(homedir string) *MasterEncryptionKey {
	return &MasterEncryptionKey{path: filepath.Join(homedir, "cache", masterKeyFile)}
}

// CreateKey generates and persists a new master key, or reports
// settings.ErrMasterKeyExists if one is already present, which the cache
// guard treats as success.
func (m *MasterEncryptionKey) CreateKey() error {
	if _, err := os.Stat(m.path); err == nil {
		return settings.ErrMasterKeyExists
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(m.path, key, 0o600)
}

// DestroyKey removes the persisted master key, if any.
func (m *MasterEncryptionKey) DestroyKey() error {
	err := os.Remove(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
