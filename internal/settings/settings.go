// Package settings defines the daemon's configuration tree and the
// cache-invalidation protocol that decides when persisted state must be
// discarded and rebuilt.
package settings

import (
	"fmt"

	"github.com/rdivossen/iotedge/internal/logging"
)

// ModuleSpec describes a container module as configured in the settings
// file: the edge agent in practice, but shaped generically since the field
// names are shared with user module specs elsewhere in the system.
type ModuleSpec struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]any    `yaml:"config"`
	Env    map[string]string `yaml:"env"`
}

// ManualProvisioning configures provisioning via a pre-shared device
// connection string.
type ManualProvisioning struct {
	DeviceConnectionString string `yaml:"device_connection_string"`
}

// DpsProvisioning configures provisioning via the registration service.
type DpsProvisioning struct {
	GlobalEndpoint string `yaml:"global_endpoint"`
	ScopeID        string `yaml:"scope_id"`
	RegistrationID string `yaml:"registration_id"`
}

// Provisioning is the sum of the two supported provisioning sources,
// discriminated by Source.
type Provisioning struct {
	Source string              `yaml:"source"`
	Manual *ManualProvisioning `yaml:"-"`
	Dps    *DpsProvisioning    `yaml:"-"`

	DeviceConnectionString string `yaml:"device_connection_string,omitempty"`
	GlobalEndpoint         string `yaml:"global_endpoint,omitempty"`
	ScopeID                string `yaml:"scope_id,omitempty"`
	RegistrationID         string `yaml:"registration_id,omitempty"`
}

// Normalize validates Source and populates the Manual/Dps sub-structs from
// the flattened YAML fields.
func (p *Provisioning) Normalize() error {
	switch p.Source {
	case "manual":
		p.Manual = &ManualProvisioning{DeviceConnectionString: p.DeviceConnectionString}
		return nil
	case "dps":
		p.Dps = &DpsProvisioning{
			GlobalEndpoint: p.GlobalEndpoint,
			ScopeID:        p.ScopeID,
			RegistrationID: p.RegistrationID,
		}
		return nil
	default:
		return fmt.Errorf("settings: unrecognized provisioning source %q", p.Source)
	}
}

// ConnectConfig holds the URIs modules use to reach the daemon.
type ConnectConfig struct {
	ManagementURI string `yaml:"management_uri"`
	WorkloadURI   string `yaml:"workload_uri"`
}

// ListenConfig holds the URIs the daemon binds its own listeners to.
type ListenConfig struct {
	ManagementURI string `yaml:"management_uri"`
	WorkloadURI   string `yaml:"workload_uri"`
}

// MobyRuntimeConfig names the container runtime endpoint and network.
type MobyRuntimeConfig struct {
	URI     string `yaml:"uri"`
	Network string `yaml:"network"`
}

// DefaultNetwork is used when moby_runtime.network is left unset.
const DefaultNetwork = "azure-iot-edge"

// Settings is the full configuration tree read from the settings file. It is
// owned by the orchestrator and is read-only once boot has started.
type Settings struct {
	Provisioning Provisioning      `yaml:"provisioning"`
	Agent        ModuleSpec        `yaml:"agent"`
	Hostname     string            `yaml:"hostname"`
	Connect      ConnectConfig     `yaml:"connect"`
	Listen       ListenConfig      `yaml:"listen"`
	Homedir      string            `yaml:"homedir"`
	MobyRuntime  MobyRuntimeConfig `yaml:"moby_runtime"`
}

// Normalize applies defaults and validates cross-field invariants after a
// Settings value has been decoded from YAML.
func (s *Settings) Normalize() error {
	if err := s.Provisioning.Normalize(); err != nil {
		return err
	}
	if s.MobyRuntime.Network == "" {
		s.MobyRuntime.Network = DefaultNetwork
		logging.Log("no container network configured, using", DefaultNetwork)
	} else {
		logging.Log("using container network", s.MobyRuntime.Network)
	}
	if s.Homedir == "" {
		return fmt.Errorf("settings: homedir is required")
	}
	return nil
}
