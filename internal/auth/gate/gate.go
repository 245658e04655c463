package gate

import (
	"fmt"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/pkg/model"
)

// Authorize allows p when its role is at least as privileged as required.
func Authorize(p *model.Principal, required model.Role) error {
	if p == nil {
		return autherrors.ErrUnauthenticated
	}
	if !p.Role.Satisfies(required) {
		return fmt.Errorf("%w: %s role required, have %s", autherrors.ErrForbidden, required, p.Role)
	}
	return nil
}

// AuthorizeSubject allows the principal that owns subject, or any principal
// holding at least the override role.
func AuthorizeSubject(p *model.Principal, subject string, override model.Role) error {
	if p == nil {
		return autherrors.ErrUnauthenticated
	}
	if p.Subject == subject && p.Role.Valid() {
		return nil
	}
	if p.Role.Satisfies(override) {
		return nil
	}
	return fmt.Errorf("%w: not the owner", autherrors.ErrForbidden)
}
