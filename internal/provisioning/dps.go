package provisioning

import (
	"context"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// dpsAPIVersion is the fixed wire API version the registration service
// session is opened against; it is independent of the local daemon's own
// ApiVersion enum.
const dpsAPIVersion = "2017-11-15"

// Tpm is the narrow slice of the hardware security module the registration
// flow needs: querying the endorsement and storage root keys that identify
// this device to the registration service, and activating an identity key
// blob into a usable, TPM-resident signing handle. A nil blob means "use
// whatever identity key is already persisted in hardware", which is what
// happens on the backup-fallback path where no fresh blob was issued.
type Tpm interface {
	GetEK(ctx context.Context) ([]byte, error)
	GetSRK(ctx context.Context) ([]byte, error)
	ActivateIdentityKey(ctx context.Context, blob []byte) (Key, error)
}

// RegistrationClient speaks the registration-service wire protocol: submit
// the device's TPM keys and registration id, then poll until the service
// assigns (or refuses) an identity. The identity key blob accompanies a
// successful assignment and is handed to the TPM for activation.
type RegistrationClient interface {
	Register(ctx context.Context, apiVersion, globalEndpoint, scopeID, registrationID string, ek, srk []byte) (*Result, []byte, error)
}

// DpsConfig is the set of inputs the registration-service flow needs beyond
// the TPM handle and the client used to speak to it.
type DpsConfig struct {
	GlobalEndpoint string
	ScopeID        string
	RegistrationID string
}

// ProvisionDps implements registration-service provisioning with file-backed
// backup fallback: on any registration failure, a valid backup is returned
// instead of failing boot outright. It returns the identity key blob handed
// back by a fresh registration, or nil when the backup path was taken.
func ProvisionDps(ctx context.Context, cfg DpsConfig, tpm Tpm, client RegistrationClient, backup *Backup) (*Result, []byte, error) {
	ek, err := tpm.GetEK(ctx)
	if err != nil {
		return fallbackOrFail(backup, ierrors.Wrap(ierrors.ProvisioningFailed, err, "querying TPM endorsement key"))
	}
	srk, err := tpm.GetSRK(ctx)
	if err != nil {
		return fallbackOrFail(backup, ierrors.Wrap(ierrors.ProvisioningFailed, err, "querying TPM storage root key"))
	}

	result, blob, err := client.Register(ctx, dpsAPIVersion, cfg.GlobalEndpoint, cfg.ScopeID, cfg.RegistrationID, ek, srk)
	if err != nil {
		return fallbackOrFail(backup, ierrors.Wrap(ierrors.ProvisioningFailed, err, "registering with provisioning service"))
	}

	if err := backup.Write(result); err != nil {
		return nil, nil, ierrors.Wrap(ierrors.CacheIO, err, "writing provisioning backup")
	}
	return result, blob, nil
}

func fallbackOrFail(backup *Backup, registrationErr error) (*Result, []byte, error) {
	result, ok := backup.Read()
	if !ok {
		return nil, nil, registrationErr
	}
	return result, nil, nil
}
