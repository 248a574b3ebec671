package settings

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// ContainerRemover is the narrow slice of the container runtime driver the
// cache guard needs: the ability to tear every module down on drift.
type ContainerRemover interface {
	RemoveAll() error
}

// ErrMasterKeyExists is returned by MasterKeyCreator.CreateKey when a master
// encryption key already exists; the cache guard treats it as success since
// key creation is meant to be idempotent.
var ErrMasterKeyExists = errors.New("master encryption key already exists")

// MasterKeyCreator is the narrow slice of the HSM-backed encryption store the
// cache guard needs: (re)establishing the master key that backs workload
// encryption after a wipe.
type MasterKeyCreator interface {
	CreateKey() error
}

const (
	cacheSubdir       = "cache"
	settingsStateFile = "settings_state"
)

// Guard decides whether state left over from a previous boot is still valid
// for the given settings and, if not, wipes it and reinitializes. On return
// (absent a fatal error) the state file exists and equals fingerprint(s).
func Guard(homedir string, s *Settings, runtime ContainerRemover, keys MasterKeyCreator) error {
	fpNow, err := Fingerprint(s)
	if err != nil {
		return ierrors.Wrap(ierrors.CacheIO, err, "computing settings fingerprint")
	}

	cacheDir := filepath.Join(homedir, cacheSubdir)
	stateFile := filepath.Join(cacheDir, settingsStateFile)

	existing, readErr := os.ReadFile(stateFile)
	if readErr == nil && string(existing) == fpNow {
		return nil
	}

	if err := runtime.RemoveAll(); err != nil {
		return ierrors.Wrap(ierrors.RuntimeFatal, err, "removing all containers on settings drift")
	}

	// Best-effort: absence is not an error, and a genuine inability to
	// clear the directory surfaces below when MkdirAll fails.
	_ = os.RemoveAll(cacheDir)

	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return ierrors.Wrap(ierrors.CacheIO, err, "recreating cache directory")
	}

	if err := keys.CreateKey(); err != nil && !errors.Is(err, ErrMasterKeyExists) {
		return ierrors.Wrap(ierrors.CacheIO, err, "creating master encryption key")
	}

	if err := os.WriteFile(stateFile, []byte(fpNow), 0o600); err != nil {
		return ierrors.Wrap(ierrors.CacheIO, err, "writing settings state file")
	}
	return nil
}
