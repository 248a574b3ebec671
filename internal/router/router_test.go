package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/apiversion"
	"github.com/rdivossen/iotedge/internal/router"
)

func ok(msg string) router.HandlerFunc {
	return func(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(msg))
		return nil
	}
}

var captures router.HandlerFunc = func(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, _ := params.Get("name")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(name))
	return nil
}

func newTestRecognizer(t *testing.T) *router.Recognizer {
	t.Helper()
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-12-30", "/modules", ok("list")))
	require.NoError(t, b.Get("2018-12-30", "/modules/:name", captures))
	require.NoError(t, b.Post("2018-12-30", "/modules/:name/start", ok("start")))
	return b.Finish()
}

func TestDuplicateRouteRejectedAtBuildTime(t *testing.T) {
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-12-30", "/modules", ok("a")))
	err := b.Get("2018-12-30", "/modules", ok("b"))
	require.Error(t, err)
}

func TestUnsupportedVersionRejectedAtBuildTime(t *testing.T) {
	b := router.NewBuilder()
	err := b.Get("2099-01-01", "/modules", ok("a"))
	require.Error(t, err)
}

// TestUnknownPathIs404 covers the seed scenario where a path matches no
// registered route under any method or version.
func TestUnknownPathIs404(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodGet, "/nonexistent?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestKnownPathWrongMethodIs405 covers the seed scenario where the path is
// registered but not for the requested method.
func TestKnownPathWrongMethodIs405(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodDelete, "/modules?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestMissingApiVersionIs400 covers the seed scenario where the api-version
// query parameter is absent entirely.
func TestMissingApiVersionIs400(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnparseableApiVersionIs400(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodGet, "/modules?api-version=garbage", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNamedCaptureIsPassedToHandler(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodGet, "/modules/edgeAgent?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edgeAgent", rec.Body.String())
}

func TestRegistrationOrderWins(t *testing.T) {
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-12-30", "/a/:x", ok("first")))
	require.NoError(t, b.Get("2018-12-30", "/a/:y", ok("second")))
	rec := b.Finish()

	version, err := apiversion.Parse("2018-12-30")
	require.NoError(t, err)

	handler, _, outcome := rec.Recognize(http.MethodGet, version, "/a/thing")
	require.Equal(t, router.Matched, outcome)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/a/thing", nil)
	require.NoError(t, handler.ServeRoute(w, req, nil))
	assert.Equal(t, "first", w.Body.String())
}

// TestSamePathOtherVersionIs404 pins the method-mismatch tie-break: a path
// registered under a different version with the same method is a version
// miss (404), not a method miss (405).
func TestSamePathOtherVersionIs404(t *testing.T) {
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-06-28", "/modules", ok("old")))
	d := router.NewDispatcher(b.Finish())

	req := httptest.NewRequest(http.MethodGet, "/modules?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestSamePathOtherVersionWrongMethodIs405 pins the other side of the
// tie-break: the 405 check spans the full same-path bucket across versions.
func TestSamePathOtherVersionWrongMethodIs405(t *testing.T) {
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-06-28", "/modules", ok("old")))
	d := router.NewDispatcher(b.Finish())

	req := httptest.NewRequest(http.MethodPost, "/modules?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorBodyNamesTheKind(t *testing.T) {
	d := router.NewDispatcher(newTestRecognizer(t))
	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidApiVersion")
}

func TestPlainHandlerErrorIsServiceError(t *testing.T) {
	b := router.NewBuilder()
	require.NoError(t, b.Get("2018-12-30", "/boom", router.HandlerFunc(
		func(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
			return errors.New("unexpected")
		})))
	d := router.NewDispatcher(b.Finish())

	req := httptest.NewRequest(http.MethodGet, "/boom?api-version=2018-12-30", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ServiceError")
}
