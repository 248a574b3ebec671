package router

import "github.com/rdivossen/iotedge/internal/apiversion"

// Recognizer is a frozen, immutable route table. It is safe for concurrent
// use by many request-handling goroutines since matching never mutates it.
type Recognizer struct {
	routes []*Route
}

// Outcome is the result of attempting to recognize a request.
type Outcome int

const (
	// Matched means Handler and Params are populated.
	Matched Outcome = iota
	// NoMatchingPath means no route for (method, version) matches the path,
	// and no same-path route under any version rules the method out: either
	// no pattern matches the path at all, or one with the requested method
	// matches it under a different version.
	NoMatchingPath
	// NoMatchingMethod means the path matches some route but none with
	// the requested method, regardless of version.
	NoMatchingMethod
)

// Recognize finds the route registered for (method, version) whose pattern
// matches path, trying routes in registration order. When no (method,
// version) route matches, the method-mismatch check runs against the full
// same-path bucket regardless of version: the caller gets 405 only when the
// path is known but no same-path route carries the requested method, and
// 404 otherwise.
func (rec *Recognizer) Recognize(method string, version apiversion.ApiVersion, path string) (Handler, Parameters, Outcome) {
	for _, r := range rec.routes {
		if r.Method != method || r.Version != version {
			continue
		}
		if params, ok := r.match(path); ok {
			return r.Handler, params, Matched
		}
	}

	pathKnown := false
	for _, r := range rec.routes {
		if _, ok := r.match(path); !ok {
			continue
		}
		pathKnown = true
		if r.Method == method {
			return nil, nil, NoMatchingPath
		}
	}
	if pathKnown {
		return nil, nil, NoMatchingMethod
	}
	return nil, nil, NoMatchingPath
}
