package hsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/hsm"
	"github.com/rdivossen/iotedge/internal/settings"
)

func TestMasterKeyCreateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := hsm.NewMasterEncryptionKey(dir)

	require.NoError(t, m.CreateKey())
	err := m.CreateKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, settings.ErrMasterKeyExists))

	require.NoError(t, m.DestroyKey())
	require.NoError(t, m.CreateKey())
}

func TestTpmKeysSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := hsm.NewTpm(dir)
	require.NoError(t, err)
	ek1, err := first.GetEK(ctx)
	require.NoError(t, err)
	srk1, err := first.GetSRK(ctx)
	require.NoError(t, err)

	second, err := hsm.NewTpm(dir)
	require.NoError(t, err)
	ek2, err := second.GetEK(ctx)
	require.NoError(t, err)
	srk2, err := second.GetSRK(ctx)
	require.NoError(t, err)

	assert.Equal(t, ek1, ek2)
	assert.Equal(t, srk1, srk2)
}

// TestActivatedIdentityKeySurvivesReopen pins the behavior the
// backup-fallback boot depends on: a later boot that activates with a nil
// blob gets back the key activated by an earlier registration.
func TestActivatedIdentityKeySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := hsm.NewTpm(dir)
	require.NoError(t, err)
	key, err := first.ActivateIdentityKey(ctx, []byte("issued-blob"))
	require.NoError(t, err)
	sig1, err := key.Sign([]byte("payload"))
	require.NoError(t, err)

	second, err := hsm.NewTpm(dir)
	require.NoError(t, err)
	reused, err := second.ActivateIdentityKey(ctx, nil)
	require.NoError(t, err)
	sig2, err := reused.Sign([]byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, sig1, sig2)
}

func TestActivateNilBlobWithoutPriorActivationFails(t *testing.T) {
	tpm, err := hsm.NewTpm(t.TempDir())
	require.NoError(t, err)
	_, err = tpm.ActivateIdentityKey(context.Background(), nil)
	require.Error(t, err)
}
