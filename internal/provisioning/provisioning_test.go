package provisioning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/provisioning"
)

func TestProvisionManualParsesConnectionString(t *testing.T) {
	store, result, root, err := provisioning.ProvisionManual(
		"HostName=hub.example;DeviceId=dev1;SharedAccessKey=c2VjcmV0",
	)
	require.NoError(t, err)
	assert.Equal(t, "hub.example", result.HubName)
	assert.Equal(t, "dev1", result.DeviceID)
	require.NotNil(t, root)

	fetched, err := store.Get("dev1", "primary")
	require.NoError(t, err)
	assert.NotNil(t, fetched)
}

func TestProvisionManualRejectsMalformed(t *testing.T) {
	_, _, _, err := provisioning.ProvisionManual("not-a-connection-string")
	require.Error(t, err)
}

func TestProvisionManualRejectsMissingKey(t *testing.T) {
	_, _, _, err := provisioning.ProvisionManual("HostName=hub.example;DeviceId=dev1")
	require.Error(t, err)
}

type failingTpm struct{}

func (failingTpm) GetEK(ctx context.Context) ([]byte, error)  { return []byte("ek"), nil }
func (failingTpm) GetSRK(ctx context.Context) ([]byte, error) { return []byte("srk"), nil }
func (failingTpm) ActivateIdentityKey(ctx context.Context, blob []byte) (provisioning.Key, error) {
	return nil, nil
}

type failingClient struct{}

func (failingClient) Register(ctx context.Context, apiVersion, globalEndpoint, scopeID, registrationID string, ek, srk []byte) (*provisioning.Result, []byte, error) {
	return nil, nil, errors.New("network unreachable")
}

// TestDpsBackupFallback covers testable property 6: when registration fails
// and a valid backup exists, the returned result equals the backup.
func TestDpsBackupFallback(t *testing.T) {
	dir := t.TempDir()
	backup := provisioning.NewBackup(dir)
	want := &provisioning.Result{HubName: "hub.example", DeviceID: "dev1"}
	require.NoError(t, backup.Write(want))

	cfg := provisioning.DpsConfig{GlobalEndpoint: "https://global.azure-devices-provisioning.net", ScopeID: "scope", RegistrationID: "reg"}
	got, blob, err := provisioning.ProvisionDps(context.Background(), cfg, failingTpm{}, failingClient{}, backup)
	require.NoError(t, err)
	assert.Nil(t, blob)
	assert.Equal(t, want, got)
}

func TestDpsFailsWithNoBackup(t *testing.T) {
	dir := t.TempDir()
	backup := provisioning.NewBackup(dir)
	cfg := provisioning.DpsConfig{GlobalEndpoint: "https://global.azure-devices-provisioning.net", ScopeID: "scope", RegistrationID: "reg"}
	_, _, err := provisioning.ProvisionDps(context.Background(), cfg, failingTpm{}, failingClient{}, backup)
	require.Error(t, err)
}

func TestDerivedKeyStoreIsDeterministicPerIdentity(t *testing.T) {
	root := provisioning.NewMemoryKey([]byte("root-secret"))
	store := provisioning.NewDerivedKeyStore("dev1", root)

	k1, err := store.Get("edgeAgent", "primary")
	require.NoError(t, err)
	k2, err := store.Get("edgeAgent", "primary")
	require.NoError(t, err)
	k3, err := store.Get("edgeHub", "primary")
	require.NoError(t, err)

	sig1, _ := k1.Sign([]byte("payload"))
	sig2, _ := k2.Sign([]byte("payload"))
	sig3, _ := k3.Sign([]byte("payload"))

	assert.Equal(t, sig1, sig2)
	assert.NotEqual(t, sig1, sig3)
}
