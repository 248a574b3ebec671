package runtime

import (
	"context"
	"io"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// labelManagedBy marks every container this daemon creates, so RemoveAll can
// find them without depending on naming conventions alone.
const labelManagedBy = "net.azure-iot-edge.owner"

const ownerValue = "iotedged"

// DockerRuntime drives containers through the Docker Engine API.
type DockerRuntime struct {
	cli *client.Client
}

// NewDockerRuntime connects to the Docker daemon at endpoint (a URI such as
// "unix:///var/run/docker.sock" or "tcp://host:2375").
func NewDockerRuntime(endpoint string) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(endpoint),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.RuntimeFatal, err, "constructing docker client")
	}
	return &DockerRuntime{cli: cli}, nil
}

// Init verifies connectivity to the engine.
func (d *DockerRuntime) Init(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return ierrors.Wrap(ierrors.RuntimeFatal, err, "pinging container runtime")
	}
	return nil
}

// RemoveAll stops and removes every container this daemon owns.
func (d *DockerRuntime) RemoveAll(ctx context.Context) error {
	names, err := d.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		_ = d.cli.ContainerStop(ctx, name, container.StopOptions{})
		if err := d.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
			return ierrors.Wrap(ierrors.RuntimeFatal, err, "removing container "+name)
		}
	}
	return nil
}

// Create creates (but does not start) a container from spec.
func (d *DockerRuntime) Create(ctx context.Context, spec ModuleSpec) error {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	cfg := &container.Config{
		Image:  spec.Image,
		Env:    env,
		Labels: map[string]string{labelManagedBy: ownerValue},
	}
	hostCfg := &container.HostConfig{
		Binds:       spec.Binds,
		NetworkMode: container.NetworkMode(spec.Network),
	}
	netCfg := &network.NetworkingConfig{}

	_, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, spec.Name)
	if err != nil {
		if errdefs.IsAlreadyExists(err) {
			return nil
		}
		return ierrors.Wrap(ierrors.RuntimeFatal, err, "creating container "+spec.Name)
	}
	return nil
}

// Start starts an already-created container.
func (d *DockerRuntime) Start(ctx context.Context, name string) error {
	if err := d.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return errors.Wrap(err, "starting container "+name)
	}
	return nil
}

// Stop stops a running container.
func (d *DockerRuntime) Stop(ctx context.Context, name string) error {
	if err := d.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil && !errdefs.IsNotFound(err) {
		return errors.Wrap(err, "stopping container "+name)
	}
	return nil
}

// List returns the names of every container this daemon owns.
func (d *DockerRuntime) List(ctx context.Context) ([]string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, ierrors.Wrap(ierrors.RuntimeFatal, err, "listing containers")
	}
	names := make([]string, 0, len(containers))
	for _, c := range containers {
		if c.Labels[labelManagedBy] != ownerValue {
			continue
		}
		for _, n := range c.Names {
			names = append(names, strings.TrimPrefix(n, "/"))
		}
	}
	return names, nil
}

// Logs streams a container's combined log output.
func (d *DockerRuntime) Logs(ctx context.Context, name string) (io.ReadCloser, error) {
	return d.cli.ContainerLogs(ctx, name, container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: true})
}
