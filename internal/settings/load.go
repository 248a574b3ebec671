package settings

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// Load reads and parses the settings file at path, applying defaults and
// validating cross-field invariants.
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.CacheIO, err, "reading settings file")
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, ierrors.Wrap(ierrors.InvalidProvisioning, err, "parsing settings file")
	}
	if err := s.Normalize(); err != nil {
		return nil, ierrors.Wrap(ierrors.InvalidProvisioning, err, "validating settings")
	}
	return &s, nil
}
