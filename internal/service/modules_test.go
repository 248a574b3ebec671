package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/router"
	"github.com/rdivossen/iotedge/internal/runtime"
	"github.com/rdivossen/iotedge/internal/service"
)

// fakeModuleRuntime records lifecycle calls; no containers are touched.
type fakeModuleRuntime struct {
	modules []string
	started []string
	stopped []string
	logs    string
}

func (f *fakeModuleRuntime) Init(ctx context.Context) error      { return nil }
func (f *fakeModuleRuntime) RemoveAll(ctx context.Context) error { return nil }
func (f *fakeModuleRuntime) Create(ctx context.Context, spec runtime.ModuleSpec) error {
	return nil
}

func (f *fakeModuleRuntime) Start(ctx context.Context, name string) error {
	f.started = append(f.started, name)
	return nil
}

func (f *fakeModuleRuntime) Stop(ctx context.Context, name string) error {
	f.stopped = append(f.stopped, name)
	return nil
}

func (f *fakeModuleRuntime) List(ctx context.Context) ([]string, error) {
	return f.modules, nil
}

func (f *fakeModuleRuntime) Logs(ctx context.Context, name string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewBufferString(f.logs)), nil
}

func TestModuleListReturnsRuntimeModules(t *testing.T) {
	fake := &fakeModuleRuntime{modules: []string{"edgeAgent", "edgeHub"}}
	h := &service.ModuleLifecycleHandlers{Runtime: fake}

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.List(rec, req, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Modules []string `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"edgeAgent", "edgeHub"}, resp.Modules)
}

func TestModuleRestartStopsThenStarts(t *testing.T) {
	fake := &fakeModuleRuntime{}
	h := &service.ModuleLifecycleHandlers{Runtime: fake}
	params := router.Parameters{{Name: "name", Value: "edgeHub"}}

	req := httptest.NewRequest(http.MethodPost, "/modules/edgeHub/restart", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Restart(rec, req, params))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"edgeHub"}, fake.stopped)
	assert.Equal(t, []string{"edgeHub"}, fake.started)
}

func TestModuleLogsStreamsRuntimeOutput(t *testing.T) {
	fake := &fakeModuleRuntime{logs: "line one\nline two\n"}
	h := &service.ModuleLifecycleHandlers{Runtime: fake}
	params := router.Parameters{{Name: "name", Value: "edgeAgent"}}

	req := httptest.NewRequest(http.MethodGet, "/modules/edgeAgent/logs", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Logs(rec, req, params))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line one\nline two\n", rec.Body.String())
}
