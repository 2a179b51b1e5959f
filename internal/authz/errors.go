package authz

import "errors"

// ErrForbidden is the authorization denial surfaced to callers. The engine
// itself only answers Allowed; whoever maps a deny to this error also owns
// the audit record for it.
var ErrForbidden = errors.New("authz: forbidden")
