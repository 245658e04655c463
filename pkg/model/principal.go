package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

var roleRank = map[Role]int{
	RoleGuest: 1,
	RoleStaff: 2,
	RoleAdmin: 3,
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r is at least as privileged as required.
// admin ⊇ staff ⊇ guest; unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= need
}

// Principal is the caller identity resolved from a verified token for a
// single request. It is never persisted.
type Principal struct {
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
