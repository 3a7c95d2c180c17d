package identity

import "errors"

// ErrUnauthorized indicates an admin-only operation was attempted by a
// non-admin actor.
var ErrUnauthorized = errors.New("unauthorized")

// Actor is the authenticated caller passed down to the ledger services. The
// services never authenticate; they only authorize on the flags carried here.
type Actor struct {
	ID    string
	Admin bool
}

// RequireAdmin returns ErrUnauthorized unless the actor carries the admin flag.
func (a Actor) RequireAdmin() error {
	if !a.Admin {
		return ErrUnauthorized
	}
	return nil
}
