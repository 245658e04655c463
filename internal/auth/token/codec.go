package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/pkg/model"

	"github.com/cristalhq/jwt/v4"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC key accepted for HS256.
const MinSecretLength = 32

// Claims is the payload carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// Verified is the result of a successful verification.
type Verified struct {
	Subject   string
	Role      model.Role
	ExpiresAt time.Time
}

type Codec struct {
	signer   jwt.Signer
	verifier jwt.Verifier
	now      func() time.Time
}

type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", autherrors.ErrConfiguration, MinSecretLength)
	}

	signer, err := jwt.NewSignerHS(jwt.HS256, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrConfiguration, err)
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrConfiguration, err)
	}

	c := &Codec{
		signer:   signer,
		verifier: verifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subject with the given role, valid for ttl.
// Timestamps have second precision.
func (c *Codec) Issue(subject string, role model.Role, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("subject cannot be empty")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	now := c.now().UTC().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token, err := jwt.NewBuilder(c.signer).Build(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token.String(), nil
}

// Verify checks the signature and expiry of raw. The role claim is returned
// as-is; deciding whether it is a known role is up to the caller.
func (c *Codec) Verify(raw string) (*Verified, error) {
	token, err := jwt.Parse([]byte(raw), c.verifier)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidSignature) || errors.Is(err, jwt.ErrAlgorithmMismatch) {
			return nil, autherrors.ErrSignatureInvalid
		}
		return nil, fmt.Errorf("%w: %v", autherrors.ErrMalformed, err)
	}

	var claims Claims
	if err := token.DecodeClaims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrMalformed, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: sub and exp claims are required", autherrors.ErrMalformed)
	}

	expiresAt := claims.ExpiresAt.Time
	if !c.now().Before(expiresAt) {
		return nil, autherrors.ErrExpired
	}

	return &Verified{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: expiresAt,
	}, nil
}
