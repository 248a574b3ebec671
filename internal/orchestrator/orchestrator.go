// Package orchestrator composes the cache guard, provisioner, runtime
// supervisor, and service launchers into the daemon's boot pipeline, and
// wires the shutdown signal fan-out across them.
package orchestrator

import (
	"context"
	"os"

	"github.com/rdivossen/iotedge/internal/envbuild"
	"github.com/rdivossen/iotedge/internal/hsm"
	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/iothub"
	"github.com/rdivossen/iotedge/internal/logging"
	"github.com/rdivossen/iotedge/internal/provisioning"
	"github.com/rdivossen/iotedge/internal/router"
	"github.com/rdivossen/iotedge/internal/runtime"
	"github.com/rdivossen/iotedge/internal/service"
	"github.com/rdivossen/iotedge/internal/settings"
)

// Main is the orchestrator: it owns Settings and drives the boot pipeline
// exactly once per process lifetime.
type Main struct {
	settingsPath string

	// ModuleIdentityClient backs the management API's module-identity
	// handlers. Left nil to disable those routes, e.g. in tests.
	ModuleIdentityClient iothub.ModuleIdentityClient
}

// New returns a Main that will load its settings from settingsPath when Run
// is called.
func New(settingsPath string) *Main {
	return &Main{settingsPath: settingsPath}
}

// Run executes the full boot pipeline and blocks until every arm (runtime
// supervisor, management launcher, workload launcher) has completed, or
// until a fatal error aborts the join and cancels the others.
func (m *Main) Run(ctx context.Context) error {
	service.InitTelemetry()
	go service.PeriodicMetricExport(ctx)

	s, err := settings.Load(m.settingsPath)
	if err != nil {
		return err
	}

	if err := os.Setenv("IOTEDGE_HOMEDIR", s.Homedir); err != nil {
		return ierrors.Wrap(ierrors.CacheIO, err, "setting IOTEDGE_HOMEDIR")
	}

	dockerRuntime, err := runtime.NewDockerRuntime(s.MobyRuntime.URI)
	if err != nil {
		return err
	}
	if err := dockerRuntime.Init(ctx); err != nil {
		return err
	}

	remover := runtime.NewBlockingRemover(ctx, dockerRuntime)
	masterKey := hsm.NewMasterEncryptionKey(s.Homedir)
	if err := settings.Guard(s.Homedir, s, remover, masterKey); err != nil {
		return err
	}

	store, result, _, err := m.provision(ctx, s)
	if err != nil {
		return err
	}
	logging.Log("provisioned device", result.DeviceID, "on hub", result.HubName)
	if result.Status != "" {
		logging.Log("provisioning status:", result.Status)
	}

	env := envbuild.BuildEnv(s.Agent.Env, result.HubName, s.Hostname, result.DeviceID, s, s.MobyRuntime.Network)

	spec, err := runtime.RewriteSpec(s.Agent, env, s.MobyRuntime.Network, s.Connect.ManagementURI, s.Connect.WorkloadURI)
	if err != nil {
		return err
	}

	supervisor, err := runtime.NewSupervisor(ctx, dockerRuntime, spec)
	if err != nil {
		return err
	}
	logging.Log("starting edge agent module", spec.Name)

	mgmtLauncher, err := service.NewLauncher("management", s.Listen.ManagementURI, m.managementRouter(dockerRuntime))
	if err != nil {
		return err
	}
	workloadLauncher, err := service.NewLauncher("workload", s.Listen.WorkloadURI, m.workloadRouter(store))
	if err != nil {
		return err
	}

	return runArms(ctx, supervisor, mgmtLauncher, workloadLauncher)
}

func (m *Main) provision(ctx context.Context, s *settings.Settings) (provisioning.KeyStore, *provisioning.Result, provisioning.Key, error) {
	if s.Provisioning.Manual != nil {
		return provisioning.Provision(ctx, s.Homedir,
			&provisioning.ManualConfig{ConnectionString: s.Provisioning.Manual.DeviceConnectionString},
			nil, nil, nil)
	}

	tpm, err := hsm.NewTpm(s.Homedir)
	if err != nil {
		return nil, nil, nil, ierrors.Wrap(ierrors.ProvisioningFailed, err, "initializing TPM")
	}
	client := provisioning.NewHTTPRegistrationClient()
	return provisioning.Provision(ctx, s.Homedir, nil, &provisioning.DpsConfig{
		GlobalEndpoint: s.Provisioning.Dps.GlobalEndpoint,
		ScopeID:        s.Provisioning.Dps.ScopeID,
		RegistrationID: s.Provisioning.Dps.RegistrationID,
	}, tpm, client)
}

func (m *Main) managementRouter(rt runtime.ContainerRuntime) *router.Dispatcher {
	b := router.NewBuilder()

	lifecycle := &service.ModuleLifecycleHandlers{Runtime: rt}
	for _, v := range []string{"2018-06-28", "2018-12-30"} {
		b.MustGet(v, "/modules", router.HandlerFunc(lifecycle.List))
		b.MustPost(v, "/modules/:name/start", router.HandlerFunc(lifecycle.Start))
		b.MustPost(v, "/modules/:name/stop", router.HandlerFunc(lifecycle.Stop))
		b.MustGet(v, "/modules/:name/logs", router.HandlerFunc(lifecycle.Logs))

		if m.ModuleIdentityClient != nil {
			h := &service.ModuleIdentityHandlers{Client: m.ModuleIdentityClient}
			b.MustGet(v, "/identities", router.HandlerFunc(h.List))
			b.MustPost(v, "/identities", router.HandlerFunc(h.Create))
			b.MustGet(v, "/identities/:name", router.HandlerFunc(h.Get))
			b.MustPut(v, "/identities/:name", router.HandlerFunc(h.Update))
			b.MustDelete(v, "/identities/:name", router.HandlerFunc(h.Delete))
		}
	}

	// Restart arrived with the 2018-12-30 revision.
	b.MustPost("2018-12-30", "/modules/:name/restart", router.HandlerFunc(lifecycle.Restart))

	return router.NewDispatcher(b.Finish())
}

func (m *Main) workloadRouter(store provisioning.KeyStore) *router.Dispatcher {
	b := router.NewBuilder()
	h := &service.WorkloadHandlers{Store: store}
	for _, v := range []string{"2018-06-28", "2018-12-30"} {
		b.MustPost(v, "/modules/:name/genid/:generationid/sign", router.HandlerFunc(h.Sign))
		b.MustPost(v, "/modules/:name/genid/:generationid/encrypt", router.HandlerFunc(h.Encrypt))
		b.MustPost(v, "/modules/:name/genid/:generationid/decrypt", router.HandlerFunc(h.Decrypt))
	}
	return router.NewDispatcher(b.Finish())
}

func init() {
	logging.Init()
}
