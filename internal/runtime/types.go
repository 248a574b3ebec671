// Package runtime drives the container runtime (a Docker client) and
// supervises the edge-agent module under a watchdog.
package runtime

import (
	"context"
	"io"
)

// ModuleSpec is the rewritten form of a module's configuration, ready to
// hand to the container runtime: image plus the fully composed environment
// and bind mounts.
type ModuleSpec struct {
	Name    string
	Image   string
	Env     map[string]string
	Binds   []string // "<host>:<container>" pairs
	Network string
}

// ContainerRuntime is the daemon's contract with the underlying container
// engine. Every call blocks the caller's goroutine but never the reactor as
// a whole, since each caller runs on its own goroutine.
type ContainerRuntime interface {
	Init(ctx context.Context) error
	RemoveAll(ctx context.Context) error
	Create(ctx context.Context, spec ModuleSpec) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Logs(ctx context.Context, name string) (io.ReadCloser, error)
}

// BlockingRemover adapts the context-taking RemoveAll to the cache guard's
// synchronous ContainerRemover contract, used at boot under exclusive access
// by the orchestrator.
type BlockingRemover struct {
	ctx     context.Context
	runtime ContainerRuntime
}

// NewBlockingRemover returns a settings.ContainerRemover-shaped adapter over
// runtime, bound to ctx, for use during the boot-time cache guard check.
func NewBlockingRemover(ctx context.Context, runtime ContainerRuntime) *BlockingRemover {
	return &BlockingRemover{ctx: ctx, runtime: runtime}
}

func (b *BlockingRemover) RemoveAll() error {
	return b.runtime.RemoveAll(b.ctx)
}
