package runtime

import (
	"context"
	"time"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/logging"
)

const (
	watchdogInitialBackoff = 1 * time.Second
	watchdogMaxBackoff     = 30 * time.Second
)

// Watchdog keeps one module running: it starts it, waits for it to exit,
// and restarts it with bounded exponential backoff until cancel fires. A
// crash is recoverable; a failure to start is not.
type Watchdog struct {
	runtime ContainerRuntime
	name    string
}

// NewWatchdog returns a watchdog for the named module.
func NewWatchdog(runtime ContainerRuntime, name string) *Watchdog {
	return &Watchdog{runtime: runtime, name: name}
}

// Run starts the module and restarts it on unexpected exit until ctx is
// cancelled. It returns only when ctx is cancelled or the module fails to
// start, which is the watchdog's, and therefore the supervisor's, completion
// future.
func (w *Watchdog) Run(ctx context.Context) error {
	backoff := watchdogInitialBackoff

	for {
		if err := w.runtime.Start(ctx, w.name); err != nil {
			return ierrors.Wrap(ierrors.RuntimeFatal, err, "starting module "+w.name)
		}

		waitErr := w.waitForExit(ctx)
		if ctx.Err() != nil {
			return nil
		}

		logging.Warn("module", w.name, "exited unexpectedly, restarting:", waitErr)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > watchdogMaxBackoff {
			backoff = watchdogMaxBackoff
		}
	}
}

// waitForExit blocks until the module's container stops running or ctx is
// cancelled, polling at a fixed interval since the engine exposes no native
// wait-for-exit primitive in this driver's narrow interface.
func (w *Watchdog) waitForExit(ctx context.Context) error {
	const pollInterval = 2 * time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			names, err := w.runtime.List(ctx)
			if err != nil {
				return err
			}
			if !contains(names, w.name) {
				return nil
			}
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
