package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/settings"
)

func TestFingerprintStableAcrossCalls(t *testing.T) {
	s := newTestSettings(t, "/var/lib/iotedge", "dev")
	fp1, err := settings.Fingerprint(s)
	require.NoError(t, err)
	fp2, err := settings.Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintDiffersOnChange(t *testing.T) {
	a := newTestSettings(t, "/var/lib/iotedge", "dev-a")
	b := newTestSettings(t, "/var/lib/iotedge", "dev-b")
	fpA, err := settings.Fingerprint(a)
	require.NoError(t, err)
	fpB, err := settings.Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fpA, fpB)
}
