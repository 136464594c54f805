package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Type and ActorUserID are required.
// - TenantID is set for tenant-scoped actions and empty for account-level ones.
// - ip capture is best-effort; do not block critical flows on audit failures.
type Event struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id,omitempty"`
	Type     EventType `json:"type"`

	ActorUserID string `json:"actor_user_id"`

	// IPAddress is the client IP resolved at the edge (see WithClientIP).
	IPAddress string `json:"ip_address,omitempty"`

	// TargetID identifies the affected row (user, tenant) when it differs from the actor.
	TargetID string `json:"target_id,omitempty"`

	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeRegister       EventType = "register"
	EventTypeLogin          EventType = "login"
	EventTypeLogout         EventType = "logout"
	EventTypeTenantSelected EventType = "tenant_selected"
	EventTypeTenantCreated  EventType = "tenant_created"
	EventTypeTenantDeleted  EventType = "tenant_deleted"
	EventTypeMemberAdded    EventType = "member_added"
	EventTypeMemberRemoved  EventType = "member_removed"
)
