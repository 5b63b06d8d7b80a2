package domain

import "time"

// Role is the staff role claimed by a clinic API token.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Identity is the read-only projection of a session token's claims.
// It is derived from the token on every load and never stored on its own.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// DisplayName is the name shown in the dashboard header.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// AuthState is the per-request view of the auth context.
type AuthState struct {
	Identity *Identity
}

// IsAuthenticated is true iff a present, well-formed, unexpired token backed this state.
func (s AuthState) IsAuthenticated() bool {
	return s.Identity != nil
}
