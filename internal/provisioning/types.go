// Package provisioning implements the daemon's two provisioning modes
// (manual connection string, and device-provisioning-service registration)
// and the derived key store every module identity is issued from.
package provisioning

// Key is an opaque signing key. It may be backed by in-memory bytes or by a
// hardware-resident handle; callers never need the raw material, only the
// ability to sign with it.
type Key interface {
	Sign(data []byte) ([]byte, error)
}

// KeyStore issues identity-scoped keys. identity is typically the device id
// or a module name; keyName distinguishes multiple keys under one identity (the
// core only ever asks for "primary").
type KeyStore interface {
	Get(identity, keyName string) (Key, error)
}

// Result is the outcome of provisioning: the cloud identity assigned to this
// device. It is produced once per boot and immutable thereafter.
type Result struct {
	HubName  string
	DeviceID string
	Status   string
}
