package hsm

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"

	"github.com/rdivossen/iotedge/internal/provisioning"
)

var errNoPersistedIdentityKey = errors.New("hsm: no identity key has been activated yet")

const (
	tpmSubdir       = "tpm"
	ekFile          = "ek"
	srkFile         = "srk"
	identityKeyFile = "identity"
)

// Tpm is a minimal black-box view of a device's TPM: endorsement and storage
// root key material, and activation of a registration-service-issued
// identity key blob into a usable signing handle. It satisfies
// provisioning.Tpm. State lives under <homedir>/tpm the way hardware keys
// survive reboots: the EK/SRK are generated once per device, and an
// activated identity key stays available to later boots that pass a nil
// blob (the backup-fallback path, where no fresh blob was issued).
type Tpm struct {
	dir       string
	ek, srk   []byte
	persisted *tpmKey
}

// NewTpm loads the device's endorsement and storage root key material from
// <homedir>/tpm, generating and persisting fresh material on first use,
// standing in for the hardware-provisioned values a real device ships with.
func NewTpm(homedir string) (*Tpm, error) {
	dir := filepath.Join(homedir, tpmSubdir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	ek, err := loadOrGenerate(filepath.Join(dir, ekFile))
	if err != nil {
		return nil, err
	}
	srk, err := loadOrGenerate(filepath.Join(dir, srkFile))
	if err != nil {
		return nil, err
	}

	t := &Tpm{dir: dir, ek: ek, srk: srk}
	if material, err := os.ReadFile(filepath.Join(dir, identityKeyFile)); err == nil {
		t.persisted = &tpmKey{material: material}
	}
	return t, nil
}

func loadOrGenerate(path string) ([]byte, error) {
	if existing, err := os.ReadFile(path); err == nil {
		return existing, nil
	}
	fresh := make([]byte, 32)
	if _, err := rand.Read(fresh); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, fresh, 0o600); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (t *Tpm) GetEK(ctx context.Context) ([]byte, error) {
	return t.ek, nil
}

func (t *Tpm) GetSRK(ctx context.Context) ([]byte, error) {
	return t.srk, nil
}

// ActivateIdentityKey activates blob into a TPM-resident signing key. A nil
// blob reuses whatever identity key was activated last, the way a real TPM
// keeps the key persisted in hardware across reboots; the first activation
// on a device requires a non-nil blob.
func (t *Tpm) ActivateIdentityKey(ctx context.Context, blob []byte) (provisioning.Key, error) {
	if blob == nil {
		if t.persisted == nil {
			return nil, errNoPersistedIdentityKey
		}
		return t.persisted, nil
	}

	material := deriveFromSRK(t.srk, blob)
	if err := os.WriteFile(filepath.Join(t.dir, identityKeyFile), material, 0o600); err != nil {
		return nil, err
	}
	k := &tpmKey{material: material}
	t.persisted = k
	return k, nil
}

func deriveFromSRK(srk, blob []byte) []byte {
	mac := hmac.New(sha256.New, srk)
	mac.Write(blob)
	return mac.Sum(nil)
}

// tpmKey is a TPM-resident signing handle: its key material never leaves
// this package, only Sign results do.
type tpmKey struct {
	material []byte
}

func (k *tpmKey) Sign(data []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, k.material)
	mac.Write(data)
	return mac.Sum(nil), nil
}
