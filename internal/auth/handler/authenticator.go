package handler

import (
	"context"
	"errors"
	"net/http"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/internal/auth/gate"
	httputil "lakeside/pkg/http"
	"lakeside/pkg/logger"
	"lakeside/pkg/middleware"
	"lakeside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	messageUnauthorized = "Full authentication is required to access this resource"
	messageForbidden    = "Access to this resource is denied"
)

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal placed by RequireRole, or nil.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey{}).(*model.Principal)
	return p
}

type Resolver interface {
	Resolve(header string) (*model.Principal, error)
}

// Authenticator guards routes with a minimum role. Failures are answered
// with fixed messages; the underlying cause is only logged.
type Authenticator struct {
	resolver Resolver
	log      *logger.Logger
}

func NewAuthenticator(resolver Resolver, log *logger.Logger) *Authenticator {
	return &Authenticator{resolver: resolver, log: log}
}

func (a *Authenticator) RequireRole(required model.Role, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		p, err := a.resolver.Resolve(r.Header.Get("Authorization"))
		if err == nil {
			err = gate.Authorize(p, required)
		}
		if err != nil {
			a.reject(w, r, err)
			return
		}

		next(w, r.WithContext(ContextWithPrincipal(r.Context(), p)), ps)
	}
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusUnauthorized, messageUnauthorized
	if errors.Is(err, autherrors.ErrForbidden) {
		status, message = http.StatusForbidden, messageForbidden
	}

	a.log.Warn("Request rejected by auth gate",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"reason", err.Error(),
	)

	if writeErr := httputil.WriteAuthError(w, r, status, message); writeErr != nil {
		a.log.Error("failed to write auth error response",
			"handler", "auth",
			"operation", "reject",
			"error", writeErr,
		)
	}
}
