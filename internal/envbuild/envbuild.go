// Package envbuild composes the environment block injected into the
// edge-agent container.
package envbuild

import (
	"strings"

	"github.com/rdivossen/iotedge/internal/apiversion"
	"github.com/rdivossen/iotedge/internal/settings"
)

// BuildEnv is the deterministic, pure composition of the edge-agent's
// environment: userEnv is applied first, then the injected, daemon-owned
// keys override any user entry with the same name, except
// IOTEDGE_APIVERSION which is always applied last and unconditionally.
// hubName is the cloud hub's fully-qualified name from the provisioning
// result; hostname is the device's own configured hostname.
func BuildEnv(userEnv map[string]string, hubName, hostname, deviceID string, s *settings.Settings, networkID string) map[string]string {
	out := make(map[string]string, len(userEnv)+10)
	for k, v := range userEnv {
		out[k] = v
	}

	out["IOTEDGE_IOTHUBHOSTNAME"] = hubName
	out["EDGEDEVICEHOSTNAME"] = strings.ToLower(hostname)
	out["IOTEDGE_DEVICEID"] = deviceID
	out["IOTEDGE_MODULEID"] = "$edgeAgent"
	out["IOTEDGE_WORKLOADURI"] = s.Connect.WorkloadURI
	out["IOTEDGE_MANAGEMENTURI"] = s.Connect.ManagementURI
	out["IOTEDGE_AUTHSCHEME"] = "sasToken"
	out["Mode"] = "iotedged"
	out["NetworkId"] = networkID

	out["IOTEDGE_APIVERSION"] = apiversion.CURRENT.String()

	return out
}
