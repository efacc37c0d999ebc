package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the category of audit event
type EventType string

const (
	EventTypeLogin       EventType = "auth.login"
	EventTypeLoginFailed EventType = "auth.login_failed"

	EventTypeRoleGrant  EventType = "authz.role_grant"
	EventTypeRoleRevoke EventType = "authz.role_revoke"
)

// Event is one recorded entry of the audit trail. ActorID is nil for events
// without an authenticated actor, such as failed logins. TargetID is the
// user an authorization change applies to.
type Event struct {
	ID        int64
	Type      EventType
	ActorID   *uuid.UUID
	TargetID  *uuid.UUID
	Detail    string
	CreatedAt time.Time
}
