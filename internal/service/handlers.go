package service

import (
	"encoding/json"
	"net/http"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/iothub"
	"github.com/rdivossen/iotedge/internal/router"
)

// ModuleIdentityHandlers implements the management API's module-identity
// endpoints directly against a ModuleIdentityClient, representative of how
// every management API handler in the daemon is a thin adapter from
// router.Handler onto one external collaborator.
type ModuleIdentityHandlers struct {
	Client iothub.ModuleIdentityClient
}

// Get handles GET /identities/:name.
func (h *ModuleIdentityHandlers) Get(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	identity, err := h.Client.Get(req.Context(), name)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "fetching module identity")
	}
	return writeJSON(w, http.StatusOK, identity)
}

// List handles GET /identities.
func (h *ModuleIdentityHandlers) List(w router.ResponseWriter, req *http.Request, _ router.Parameters) error {
	identities, err := h.Client.List(req.Context())
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "listing module identities")
	}
	return writeJSON(w, http.StatusOK, identities)
}

// Create handles POST /identities.
func (h *ModuleIdentityHandlers) Create(w router.ResponseWriter, req *http.Request, _ router.Parameters) error {
	var body struct {
		ModuleID string `json:"moduleId"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if body.ModuleID == "" {
		return ierrors.New(ierrors.ServiceError, "moduleId is required")
	}

	identity, err := h.Client.Create(req.Context(), body.ModuleID)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "creating module identity")
	}
	return writeJSON(w, http.StatusCreated, identity)
}

// Update handles PUT /identities/:name.
func (h *ModuleIdentityHandlers) Update(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	var identity iothub.ModuleIdentity
	if err := decodeJSON(req, &identity); err != nil {
		return err
	}
	identity.ModuleID = name

	updated, err := h.Client.Update(req.Context(), &identity)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "updating module identity")
	}
	return writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /identities/:name.
func (h *ModuleIdentityHandlers) Delete(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}
	if err := h.Client.Delete(req.Context(), name); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "deleting module identity")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeJSON(w router.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
