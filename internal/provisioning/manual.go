package provisioning

import (
	"encoding/base64"
	"strings"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

type connectionString struct {
	hostName        string
	deviceID        string
	sharedAccessKey []byte
}

// parseConnectionString parses "HostName=…;DeviceId=…;SharedAccessKey=<base64>"
// in any field order, decoding the key from base64.
func parseConnectionString(raw string) (*connectionString, error) {
	fields := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, ierrors.New(ierrors.InvalidProvisioning, "malformed connection string field: "+part)
		}
		fields[kv[0]] = kv[1]
	}

	hostName, ok := fields["HostName"]
	if !ok || hostName == "" {
		return nil, ierrors.New(ierrors.InvalidProvisioning, "connection string missing HostName")
	}
	deviceID, ok := fields["DeviceId"]
	if !ok || deviceID == "" {
		return nil, ierrors.New(ierrors.InvalidProvisioning, "connection string missing DeviceId")
	}
	encodedKey, ok := fields["SharedAccessKey"]
	if !ok || encodedKey == "" {
		return nil, ierrors.New(ierrors.InvalidProvisioning, "connection string missing SharedAccessKey")
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.InvalidProvisioning, err, "decoding SharedAccessKey")
	}

	return &connectionString{hostName: hostName, deviceID: deviceID, sharedAccessKey: key}, nil
}

// ProvisionManual implements manual connection-string provisioning: it
// returns the raw key store seeded with the device primary key, the
// provisioning result, and the root key itself.
func ProvisionManual(raw string) (KeyStore, *Result, Key, error) {
	cs, err := parseConnectionString(raw)
	if err != nil {
		return nil, nil, nil, err
	}

	store := NewMemoryKeyStore(cs.deviceID, cs.sharedAccessKey)
	root, err := store.Get(cs.deviceID, "primary")
	if err != nil {
		return nil, nil, nil, ierrors.Wrap(ierrors.InvalidProvisioning, err, "loading device primary key")
	}

	return store, &Result{HubName: cs.hostName, DeviceID: cs.deviceID}, root, nil
}
