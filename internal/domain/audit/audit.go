package audit

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("audit event not found")

// Action is the closed set of auditable actions.
type Action string

const (
	ActionUserCreated  Action = "user_created"
	ActionUserUpdated  Action = "user_updated"
	ActionUserDeleted  Action = "user_deleted"
	ActionRoleAssigned Action = "role_assigned"
	ActionRoleCreated  Action = "role_created"
	ActionRoleUpdated  Action = "role_updated"
	ActionRoleDeleted  Action = "role_deleted"
	ActionLoginSuccess Action = "login_success"
	ActionLoginFailed  Action = "login_failed"
)

var validActions = map[Action]struct{}{
	ActionUserCreated:  {},
	ActionUserUpdated:  {},
	ActionUserDeleted:  {},
	ActionRoleAssigned: {},
	ActionRoleCreated:  {},
	ActionRoleUpdated:  {},
	ActionRoleDeleted:  {},
	ActionLoginSuccess: {},
	ActionLoginFailed:  {},
}

func (a Action) Valid() bool {
	_, ok := validActions[a]
	return ok
}

// Actor identifies who triggered an event. UserID is nil for a failed login
// against an unknown email; Email is always set.
type Actor struct {
	UserID *string `json:"userId"`
	Email  string  `json:"email"`
}

// Target identifies the entity an action affected, when there is one.
type Target struct {
	UserID *string `json:"userId,omitempty"`
	Email  string  `json:"email,omitempty"`
}

// Event is a write-once audit record. Nothing in this codebase mutates or
// deletes one after it has been inserted.
type Event struct {
	ID        string          `json:"id"`
	Action    Action          `json:"action"`
	Actor     Actor           `json:"actor"`
	Target    *Target         `json:"target,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	IPAddress string          `json:"ipAddress,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ListFilter narrows a trail query. Absent fields are no-ops; present
// fields compose conjunctively.
type ListFilter struct {
	Action    *Action
	ActorID   *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
