package router

import (
	"fmt"

	"github.com/rdivossen/iotedge/internal/apiversion"
)

// Builder accumulates routes before they are frozen into a Recognizer. Route
// registration can fail (a malformed pattern, an unsupported version string,
// or a duplicate (method, version, pattern) triple), and Route reports that
// failure to the caller rather than panicking, so a bad route table is a
// build-time error the caller can act on instead of a process crash.
type Builder struct {
	routes []*Route
	seen   map[string]bool
	err    error
}

// NewBuilder returns an empty route builder.
func NewBuilder() *Builder {
	return &Builder{seen: map[string]bool{}}
}

// Route registers method+version+pattern against handler. version is parsed
// with apiversion.Parse, so an unrecognized version string is reported here
// rather than deferred to request time.
func (b *Builder) Route(method, version, pattern string, handler Handler) error {
	v, err := apiversion.Parse(version)
	if err != nil {
		return fmt.Errorf("router: registering %s %s: %w", method, pattern, err)
	}

	re, names, err := compilePattern(pattern)
	if err != nil {
		return err
	}

	route := &Route{Method: method, Version: v, Pattern: pattern, Handler: handler, re: re, names: names}
	if b.seen[route.key()] {
		return fmt.Errorf("router: duplicate route %s %s %s", method, v, pattern)
	}
	b.seen[route.key()] = true
	b.routes = append(b.routes, route)
	return nil
}

// Get registers a GET route.
func (b *Builder) Get(version, pattern string, handler Handler) error {
	return b.Route("GET", version, pattern, handler)
}

// Post registers a POST route.
func (b *Builder) Post(version, pattern string, handler Handler) error {
	return b.Route("POST", version, pattern, handler)
}

// Put registers a PUT route.
func (b *Builder) Put(version, pattern string, handler Handler) error {
	return b.Route("PUT", version, pattern, handler)
}

// Delete registers a DELETE route.
func (b *Builder) Delete(version, pattern string, handler Handler) error {
	return b.Route("DELETE", version, pattern, handler)
}

// MustGet is Get, panicking on error. It is for route tables built from
// literal versions and patterns at startup, such as the daemon's own tables,
// where a malformed entry is a programmer error that should fail fast before
// any request is served; callers registering routes from data should use Get
// and handle the error.
func (b *Builder) MustGet(version, pattern string, handler Handler) *Builder {
	if err := b.Get(version, pattern, handler); err != nil {
		panic(err)
	}
	return b
}

// MustPost is Post, panicking on error. See MustGet.
func (b *Builder) MustPost(version, pattern string, handler Handler) *Builder {
	if err := b.Post(version, pattern, handler); err != nil {
		panic(err)
	}
	return b
}

// MustPut is Put, panicking on error. See MustGet.
func (b *Builder) MustPut(version, pattern string, handler Handler) *Builder {
	if err := b.Put(version, pattern, handler); err != nil {
		panic(err)
	}
	return b
}

// MustDelete is Delete, panicking on error. See MustGet.
func (b *Builder) MustDelete(version, pattern string, handler Handler) *Builder {
	if err := b.Delete(version, pattern, handler); err != nil {
		panic(err)
	}
	return b
}

// Finish freezes the builder's routes into a Recognizer.
func (b *Builder) Finish() *Recognizer {
	routes := make([]*Route, len(b.routes))
	copy(routes, b.routes)
	return &Recognizer{routes: routes}
}
