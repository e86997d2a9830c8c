package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleStudent   Role = "student"
	RoleAdmin     Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unsupported chat role %q", raw)
	}
}

type Identity struct {
	Role      Role
	StudentID *int
	Email     string
	Name      string
}

func AnonymousIdentity() Identity {
	return Identity{Role: RoleAnonymous}
}

func (i Identity) IsAnonymous() bool {
	return i.Role == "" || i.Role == RoleAnonymous
}

func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(i.Email); email != "" {
		return email
	}
	return string(i.Role)
}

type SessionPhase string

const (
	PhaseBootstrapping SessionPhase = "bootstrapping"
	PhaseAnonymous     SessionPhase = "anonymous"
	PhaseAuthenticated SessionPhase = "authenticated"
)

// Session is derived from the stored credential and never persisted itself.
type Session struct {
	// ID changes on every login, logout and expiry so late responses can be
	// recognised as belonging to a session that is gone.
	ID       string
	Phase    SessionPhase
	Identity Identity
}

func (s Session) Authenticated() bool {
	return !s.Identity.IsAnonymous()
}
