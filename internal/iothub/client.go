// Package iothub is the daemon's narrow contract with the cloud hub client:
// module-identity CRUD given a token source and device id. The protocol
// itself, and how the token is obtained, are out of scope; the core only
// needs the CRUD surface.
package iothub

import "context"

// ModuleIdentity is a module's identity as known to the cloud hub.
type ModuleIdentity struct {
	DeviceID     string
	ModuleID     string
	GenerationID string
	ManagedBy    string
	PrimaryKey   []byte
	SecondaryKey []byte
}

// ModuleIdentityClient exposes module-identity CRUD against the cloud hub,
// scoped to one device id for its lifetime.
type ModuleIdentityClient interface {
	Create(ctx context.Context, moduleID string) (*ModuleIdentity, error)
	Get(ctx context.Context, moduleID string) (*ModuleIdentity, error)
	Update(ctx context.Context, identity *ModuleIdentity) (*ModuleIdentity, error)
	Delete(ctx context.Context, moduleID string) error
	List(ctx context.Context) ([]*ModuleIdentity, error)
}
