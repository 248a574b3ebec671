// Package service binds the management and workload HTTP APIs to their
// configured endpoints and serves them until shutdown.
package service

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/docker/go-connections/sockets"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/logging"
)

// Launcher binds one router to one URI and serves it until its cancellation
// channel fires.
type Launcher struct {
	name     string
	listener net.Listener
	server   *http.Server
}

// NewLauncher binds handler at uri (scheme unix, http, or https). For a unix
// socket, the parent directory is created if missing and any stale socket
// file at the path is unlinked first.
func NewLauncher(name, uri string, handler http.Handler) (*Launcher, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.RuntimeFatal, err, "parsing listen URI for "+name)
	}

	var listener net.Listener
	switch u.Scheme {
	case "unix":
		path := u.Path
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, ierrors.Wrap(ierrors.CacheIO, err, "creating socket directory for "+name)
		}
		_ = os.Remove(path)
		listener, err = sockets.NewUnixSocket(path, 0)
		if err != nil {
			return nil, ierrors.Wrap(ierrors.RuntimeFatal, err, "binding unix socket for "+name)
		}
	case "http", "https":
		listener, err = net.Listen("tcp", u.Host)
		if err != nil {
			return nil, ierrors.Wrap(ierrors.RuntimeFatal, err, "binding tcp listener for "+name)
		}
	default:
		return nil, ierrors.New(ierrors.RuntimeFatal, "unsupported listen URI scheme: "+u.Scheme)
	}

	logging.Log("Listening on", uri, "for the", name, "API")

	return &Launcher{
		name:     name,
		listener: listener,
		server:   &http.Server{Handler: LoggingMiddleware(name, handler)},
	}, nil
}

// Run serves requests until ctx is cancelled, then drains in-flight
// requests before returning.
func (l *Launcher) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		if err := l.server.Serve(l.listener); err != nil && err != http.ErrServerClosed {
			errc <- ierrors.Wrap(ierrors.ServiceError, err, l.name+" listener failed")
			return
		}
		errc <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = l.server.Shutdown(shutdownCtx)
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}
