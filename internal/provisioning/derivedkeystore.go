package provisioning

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DerivedKeyStore issues module-specific keys derived from a single primary
// key, without ever needing the primary key's raw bytes. This lets the same
// store sit in front of either an in-memory primary key or a TPM-resident
// handle: deriving goes through Sign, the one operation both key types
// support, rather than through the primary's material directly.
type DerivedKeyStore struct {
	deviceID string
	primary  Key
}

// NewDerivedKeyStore wraps primary (the device's "primary" key under
// deviceID) as a store that derives per-module keys on demand.
func NewDerivedKeyStore(deviceID string, primary Key) *DerivedKeyStore {
	return &DerivedKeyStore{deviceID: deviceID, primary: primary}
}

// Get derives a key for (identity, keyName): it signs the identity+keyName
// pair with the primary key to obtain deterministic secret material, then
// expands that material via HKDF-SHA256 into the derived key's bytes.
func (s *DerivedKeyStore) Get(identity, keyName string) (Key, error) {
	material, err := s.primary.Sign([]byte(s.deviceID + "/" + identity + "/" + keyName))
	if err != nil {
		return nil, err
	}

	reader := hkdf.New(sha256.New, material, nil, []byte("iotedge-derived-key/"+identity+"/"+keyName))
	derived := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, err
	}
	return NewMemoryKey(derived), nil
}
