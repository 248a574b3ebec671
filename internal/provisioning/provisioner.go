package provisioning

import (
	"context"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// ManualConfig carries the raw connection string for manual provisioning.
type ManualConfig struct {
	ConnectionString string
}

// Provision runs whichever provisioning mode is configured and returns the
// triple every caller needs: a key store good for issuing module-specific
// keys, the assigned cloud identity, and the device's root signing key.
//
// Exactly one of manual or dps must be non-nil; this mirrors the settings
// file's provisioning.source discriminator, already validated by
// Settings.Normalize before Provision is ever called.
func Provision(ctx context.Context, homedir string, manual *ManualConfig, dps *DpsConfig, tpm Tpm, client RegistrationClient) (KeyStore, *Result, Key, error) {
	var (
		result *Result
		root   Key
		err    error
	)

	switch {
	case manual != nil:
		_, result, root, err = ProvisionManual(manual.ConnectionString)
		if err != nil {
			return nil, nil, nil, err
		}

	case dps != nil:
		backup := NewBackup(homedir)
		var blob []byte
		result, blob, err = ProvisionDps(ctx, *dps, tpm, client, backup)
		if err != nil {
			return nil, nil, nil, err
		}
		root, err = tpm.ActivateIdentityKey(ctx, blob)
		if err != nil {
			return nil, nil, nil, ierrors.Wrap(ierrors.ProvisioningFailed, err, "activating TPM identity key")
		}

	default:
		return nil, nil, nil, ierrors.New(ierrors.InvalidProvisioning, "no provisioning mode configured")
	}

	derived := NewDerivedKeyStore(result.DeviceID, root)
	return derived, result, root, nil
}
