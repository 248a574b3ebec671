package ierrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

func TestWrapPreservesKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := ierrors.Wrap(ierrors.CacheIO, cause, "writing settings state")

	require.Error(t, err)
	assert.Equal(t, ierrors.CacheIO, ierrors.KindOf(err))
	assert.True(t, ierrors.Is(err, ierrors.CacheIO))
	assert.False(t, ierrors.Is(err, ierrors.RuntimeFatal))
	assert.Contains(t, err.Error(), "boom")
}

func TestKindOfDefaultsToOther(t *testing.T) {
	assert.Equal(t, ierrors.Other, ierrors.KindOf(errors.New("plain")))
}

func TestStatusCodeMapping(t *testing.T) {
	assert.Equal(t, 400, ierrors.InvalidApiVersion.StatusCode())
	assert.Equal(t, 404, ierrors.NotFound.StatusCode())
	assert.Equal(t, 405, ierrors.MethodNotAllowed.StatusCode())
	assert.Equal(t, 500, ierrors.ServiceError.StatusCode())
}
