package orchestrator

import (
	"context"
	"sync"
)

// Arm is anything with a cancellation-aware completion future: the runtime
// supervisor and both service launchers all have this shape.
type Arm interface {
	Run(ctx context.Context) error
}

// runArms drives the fixed shutdown fan-out: external signal cancels
// runtimeCtx; when the runtime arm completes (by cancellation or error),
// cancellation is forwarded to the two launcher arms, which share
// launcherCtx. A launcher arm that fails cancels runtimeCtx, so its error
// also brings down the other two arms. It returns once all three arms have
// completed, preferring the runtime arm's error, then management's, then
// workload's.
func runArms(ctx context.Context, runtime, management, workload Arm) error {
	runtimeCtx, cancelRuntime := context.WithCancel(ctx)
	defer cancelRuntime()
	launcherCtx, cancelLaunchers := context.WithCancel(context.Background())
	defer cancelLaunchers()

	var (
		runtimeErr, mgmtErr, workloadErr error
		wg                               sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runtimeErr = runtime.Run(runtimeCtx)
		cancelLaunchers()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mgmtErr = management.Run(launcherCtx)
		if mgmtErr != nil {
			cancelRuntime()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		workloadErr = workload.Run(launcherCtx)
		if workloadErr != nil {
			cancelRuntime()
		}
	}()

	go func() {
		<-ctx.Done()
		cancelRuntime()
	}()

	wg.Wait()

	if runtimeErr != nil {
		return runtimeErr
	}
	if mgmtErr != nil {
		return mgmtErr
	}
	return workloadErr
}
