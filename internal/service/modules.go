package service

import (
	"io"
	"net/http"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/router"
	"github.com/rdivossen/iotedge/internal/runtime"
)

// ModuleLifecycleHandlers implements the management API's module lifecycle
// endpoints directly against the container runtime driver.
type ModuleLifecycleHandlers struct {
	Runtime runtime.ContainerRuntime
}

type moduleList struct {
	Modules []string `json:"modules"`
}

// List handles GET /modules.
func (h *ModuleLifecycleHandlers) List(w router.ResponseWriter, req *http.Request, _ router.Parameters) error {
	names, err := h.Runtime.List(req.Context())
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "listing modules")
	}
	if names == nil {
		names = []string{}
	}
	return writeJSON(w, http.StatusOK, moduleList{Modules: names})
}

// Start handles POST /modules/:name/start.
func (h *ModuleLifecycleHandlers) Start(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}
	if err := h.Runtime.Start(req.Context(), name); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "starting module "+name)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Stop handles POST /modules/:name/stop.
func (h *ModuleLifecycleHandlers) Stop(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}
	if err := h.Runtime.Stop(req.Context(), name); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "stopping module "+name)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Restart handles POST /modules/:name/restart.
func (h *ModuleLifecycleHandlers) Restart(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}
	if err := h.Runtime.Stop(req.Context(), name); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "stopping module "+name)
	}
	if err := h.Runtime.Start(req.Context(), name); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "restarting module "+name)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Logs handles GET /modules/:name/logs, streaming the module's combined
// output until the stream ends or the client disconnects (the request
// context is threaded through to the runtime, which terminates the stream
// on cancellation).
func (h *ModuleLifecycleHandlers) Logs(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	stream, err := h.Runtime.Logs(req.Context(), name)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "opening log stream for "+name)
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil && req.Context().Err() == nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "streaming logs for "+name)
	}
	return nil
}
