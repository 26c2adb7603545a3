package auth

import "context"

// Identity is who a session token was issued to.
type Identity struct {
	SessionID string
	Name      string // roster participant, empty when not given at login
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the shared passphrase for per-person
// credentials without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the credential and returns a fresh identity.
	// name is optional and only recorded for audit logging.
	Authenticate(ctx context.Context, name, credential string) (*Identity, error)
}
