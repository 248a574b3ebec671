package router

import (
	"encoding/json"
	"net/http"

	"github.com/rdivossen/iotedge/internal/apiversion"
	"github.com/rdivossen/iotedge/internal/ierrors"
)

// Dispatcher adapts a Recognizer to http.Handler: it parses the api-version
// query parameter, recognizes the (method, version, path) triple, and
// translates the outcome (or any error the matched Handler returns) into a
// wire-form response.
type Dispatcher struct {
	rec *Recognizer
}

// NewDispatcher wraps rec as an http.Handler.
func NewDispatcher(rec *Recognizer) *Dispatcher {
	return &Dispatcher{rec: rec}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	raw := req.URL.Query().Get("api-version")
	if raw == "" {
		writeError(w, ierrors.New(ierrors.InvalidApiVersion, "missing api-version query parameter"))
		return
	}
	version, err := apiversion.Parse(raw)
	if err != nil {
		writeError(w, ierrors.Wrap(ierrors.InvalidApiVersion, err, "parsing api-version"))
		return
	}

	handler, params, outcome := d.rec.Recognize(req.Method, version, req.URL.Path)
	switch outcome {
	case NoMatchingPath:
		writeError(w, ierrors.New(ierrors.NotFound, "no such resource"))
		return
	case NoMatchingMethod:
		writeError(w, ierrors.New(ierrors.MethodNotAllowed, "method not allowed for this resource"))
		return
	}

	if err := handler.ServeRoute(w, req, params); err != nil {
		if ierrors.KindOf(err) == ierrors.Other {
			err = ierrors.Wrap(ierrors.ServiceError, err, "handler failed")
		}
		writeError(w, err)
	}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := ierrors.KindOf(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(kind.StatusCode())
	_ = json.NewEncoder(w).Encode(errorBody{Kind: kind.String(), Message: err.Error()})
}
