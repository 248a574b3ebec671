package provisioning

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"
)

// MemoryKey is a raw in-memory signing key, used for manual connection
// string provisioning where the shared access key is already plain bytes.
type MemoryKey struct {
	raw []byte
}

// NewMemoryKey wraps raw key bytes (already base64-decoded) as a Key.
func NewMemoryKey(raw []byte) *MemoryKey {
	return &MemoryKey{raw: raw}
}

// Sign computes HMAC-SHA256(raw, data).
func (k *MemoryKey) Sign(data []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, k.raw)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// MemoryKeyStore is a single-key KeyStore seeded at construction time, used
// to hold the device primary key obtained from manual provisioning.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*MemoryKey
}

// NewMemoryKeyStore returns a store pre-seeded with the device primary key.
func NewMemoryKeyStore(deviceID string, primary []byte) *MemoryKeyStore {
	return &MemoryKeyStore{
		keys: map[string]*MemoryKey{
			keyID(deviceID, "primary"): NewMemoryKey(primary),
		},
	}
}

// Get satisfies KeyStore.
func (s *MemoryKeyStore) Get(identity, keyName string) (Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[keyID(identity, keyName)]
	if !ok {
		return nil, fmt.Errorf("provisioning: no key for identity %q name %q", identity, keyName)
	}
	return k, nil
}

func keyID(identity, keyName string) string {
	return identity + "/" + keyName
}
