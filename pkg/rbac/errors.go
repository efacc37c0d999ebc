package rbac

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by Authorize when the caller provided no
// identity and the required permission is not blanket-granted. It maps to
// 401 at the HTTP boundary.
var ErrNotAuthenticated = errors.New("authentication required")

// MissingPermissionError is returned by Authorize when an authenticated
// caller lacks the required permission. It maps to 403 at the HTTP boundary.
type MissingPermissionError struct {
	Permission Permission
}

func (e *MissingPermissionError) Error() string {
	return fmt.Sprintf("missing permission %q", e.Permission.Name())
}

// UnknownPermissionNameError reports a permission name that does not resolve
// against the registry. Encountering one while decoding persisted or
// configured data is an integrity error.
type UnknownPermissionNameError struct {
	Name string
}

func (e *UnknownPermissionNameError) Error() string {
	return fmt.Sprintf("no such permission: %q", e.Name)
}

// UnknownRoleNameError reports a role name that does not resolve against the
// registry.
type UnknownRoleNameError struct {
	Name string
}

func (e *UnknownRoleNameError) Error() string {
	return fmt.Sprintf("no such role: %q", e.Name)
}

// IntegrityError reports persisted data that contradicts the compiled-in
// registries, such as a role id in user_roles that no longer exists.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "authorization data integrity error: " + e.Reason
}
