package principal

import (
	"errors"
	"fmt"
	"strings"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/internal/auth/token"
	"lakeside/pkg/model"
)

type Verifier interface {
	Verify(raw string) (*token.Verified, error)
}

// Resolver turns an Authorization header into a Principal. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	verifier Verifier
	scheme   string
}

func NewResolver(verifier Verifier, scheme string) *Resolver {
	if scheme == "" {
		scheme = "Bearer"
	}
	return &Resolver{verifier: verifier, scheme: scheme}
}

func (r *Resolver) Resolve(header string) (*model.Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, autherrors.ErrMissingCredential
	}

	scheme, raw, found := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, r.scheme) {
		return nil, fmt.Errorf("%w: expected %s scheme", autherrors.ErrInvalidCredential, r.scheme)
	}
	raw = strings.TrimSpace(raw)
	if !found || raw == "" {
		return nil, autherrors.ErrMissingCredential
	}

	verified, err := r.verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, autherrors.ErrExpired) {
			return nil, fmt.Errorf("%w: %v", autherrors.ErrExpiredCredential, err)
		}
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidCredential, err)
	}

	if !verified.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", autherrors.ErrInvalidCredential, verified.Role)
	}

	return &model.Principal{
		Subject:   verified.Subject,
		Role:      verified.Role,
		ExpiresAt: verified.ExpiresAt,
	}, nil
}
