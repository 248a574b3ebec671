package envbuild_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdivossen/iotedge/internal/apiversion"
	"github.com/rdivossen/iotedge/internal/envbuild"
	"github.com/rdivossen/iotedge/internal/settings"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()
	s := &settings.Settings{
		Homedir: "/var/lib/iotedge",
		Provisioning: settings.Provisioning{
			Source:                 "manual",
			DeviceConnectionString: "HostName=hub.example;DeviceId=d;SharedAccessKey=a2V5",
		},
	}
	s.Connect.ManagementURI = "unix:///var/run/iotedge/mgmt.sock"
	s.Connect.WorkloadURI = "unix:///var/run/iotedge/workload.sock"
	require.NoError(t, s.Normalize())
	return s
}

// injectedKeys enumerates every key the daemon injects, per the env builder
// table, other than IOTEDGE_APIVERSION which has its own override test.
var injectedKeys = []string{
	"IOTEDGE_IOTHUBHOSTNAME",
	"EDGEDEVICEHOSTNAME",
	"IOTEDGE_DEVICEID",
	"IOTEDGE_MODULEID",
	"IOTEDGE_WORKLOADURI",
	"IOTEDGE_MANAGEMENTURI",
	"IOTEDGE_AUTHSCHEME",
	"Mode",
	"NetworkId",
}

// TestInjectedKeysOverrideUser covers testable property 7.
func TestInjectedKeysOverrideUser(t *testing.T) {
	s := testSettings(t)
	for _, key := range injectedKeys {
		userEnv := map[string]string{key: "x"}
		env := envbuild.BuildEnv(userEnv, "hub.example", "host", "dev1", s, "net1")
		assert.NotEqual(t, "x", env[key], "key %s should be overridden by the injected value", key)
	}
}

func TestApiVersionAlwaysWins(t *testing.T) {
	s := testSettings(t)
	userEnv := map[string]string{"IOTEDGE_APIVERSION": "bogus"}
	env := envbuild.BuildEnv(userEnv, "hub.example", "host", "dev1", s, "net1")
	assert.Equal(t, apiversion.CURRENT.String(), env["IOTEDGE_APIVERSION"])
}

// TestEnvOverride covers seed scenario S7.
func TestEnvOverride(t *testing.T) {
	s := testSettings(t)
	userEnv := map[string]string{"IOTEDGE_IOTHUBHOSTNAME": "attacker", "EXTRA": "1"}
	env := envbuild.BuildEnv(userEnv, "good", "host", "d", s, "net")
	assert.Equal(t, "good", env["IOTEDGE_IOTHUBHOSTNAME"])
	assert.Equal(t, "1", env["EXTRA"])
}

func TestHostnameIsLowercased(t *testing.T) {
	s := testSettings(t)
	env := envbuild.BuildEnv(nil, "hub.example", "MyDevice", "dev1", s, "net")
	assert.Equal(t, "mydevice", env["EDGEDEVICEHOSTNAME"])
}
