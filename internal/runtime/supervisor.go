package runtime

import (
	"context"
	"net/url"
	"strings"

	"github.com/distribution/reference"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/settings"
)

// Supervisor owns the edge-agent module's lifecycle: rewriting its spec,
// creating and starting it, and running it under a watchdog until shutdown.
type Supervisor struct {
	runtime  ContainerRuntime
	watchdog *Watchdog
}

// RewriteSpec composes the edge-agent's module spec from settings, the
// already-built environment block, and the local API URIs it needs to
// reach: unix-scheme URIs get a matching host-to-container bind mount so the
// agent can dial those sockets directly.
func RewriteSpec(agent settings.ModuleSpec, env map[string]string, network string, localURIs ...string) (ModuleSpec, error) {
	normalized, err := reference.ParseNormalizedNamed(imageOf(agent))
	if err != nil {
		return ModuleSpec{}, ierrors.Wrap(ierrors.RuntimeFatal, err, "parsing agent module image reference")
	}

	var binds []string
	for _, raw := range localURIs {
		u, err := url.Parse(raw)
		if err != nil {
			return ModuleSpec{}, ierrors.Wrap(ierrors.RuntimeFatal, err, "parsing local API URI "+raw)
		}
		if u.Scheme != "unix" {
			continue
		}
		path := u.Path
		binds = append(binds, path+":"+path)
	}

	return ModuleSpec{
		Name:    agent.Name,
		Image:   reference.TagNameOnly(normalized).String(),
		Env:     env,
		Binds:   binds,
		Network: network,
	}, nil
}

func imageOf(agent settings.ModuleSpec) string {
	if img, ok := agent.Config["image"].(string); ok && img != "" {
		return img
	}
	return strings.TrimSpace(agent.Name)
}

// NewSupervisor creates spec under runtime, returning a Supervisor whose Run
// is the watchdog's completion future; the watchdog starts the module when
// Run is called. Failure to rewrite the spec is the caller's concern
// (RewriteSpec); failure to create the module here is fatal, and a failure
// to start it is returned by Run.
func NewSupervisor(ctx context.Context, runtime ContainerRuntime, spec ModuleSpec) (*Supervisor, error) {
	if err := runtime.Create(ctx, spec); err != nil {
		return nil, err
	}
	return &Supervisor{runtime: runtime, watchdog: NewWatchdog(runtime, spec.Name)}, nil
}

// Run is the supervisor's completion future: it resolves when ctx is
// cancelled, or returns an error if the module cannot be kept running.
func (s *Supervisor) Run(ctx context.Context) error {
	return s.watchdog.Run(ctx)
}
