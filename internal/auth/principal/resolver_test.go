package principal

import (
	"errors"
	"testing"
	"time"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/internal/auth/token"
	"lakeside/pkg/model"
)

type mockVerifier struct {
	verifyFunc func(raw string) (*token.Verified, error)
}

func (m *mockVerifier) Verify(raw string) (*token.Verified, error) {
	return m.verifyFunc(raw)
}

func TestResolver_Resolve(t *testing.T) {
	exp := time.Date(2030, 6, 1, 13, 0, 0, 0, time.UTC)
	verifier := &mockVerifier{
		verifyFunc: func(raw string) (*token.Verified, error) {
			switch raw {
			case "good":
				return &token.Verified{Subject: "guest-1", Role: model.RoleGuest, ExpiresAt: exp}, nil
			case "expired":
				return nil, autherrors.ErrExpired
			case "forged":
				return nil, autherrors.ErrSignatureInvalid
			case "garbage":
				return nil, autherrors.ErrMalformed
			case "owner":
				return &token.Verified{Subject: "x", Role: model.Role("owner"), ExpiresAt: exp}, nil
			}
			t.Fatalf("unexpected token %q", raw)
			return nil, nil
		},
	}
	resolver := NewResolver(verifier, "Bearer")

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid bearer", "Bearer good", nil},
		{"scheme is case insensitive", "bearer good", nil},
		{"missing header", "", autherrors.ErrMissingCredential},
		{"scheme without token", "Bearer", autherrors.ErrMissingCredential},
		{"scheme with blank token", "Bearer   ", autherrors.ErrMissingCredential},
		{"wrong scheme", "Basic dXNlcjpwYXNz", autherrors.ErrInvalidCredential},
		{"expired token", "Bearer expired", autherrors.ErrExpiredCredential},
		{"bad signature", "Bearer forged", autherrors.ErrInvalidCredential},
		{"malformed token", "Bearer garbage", autherrors.ErrInvalidCredential},
		{"unknown role", "Bearer owner", autherrors.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := resolver.Resolve(tt.header)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				if p != nil {
					t.Errorf("expected nil principal on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Subject != "guest-1" || p.Role != model.RoleGuest || !p.ExpiresAt.Equal(exp) {
				t.Errorf("unexpected principal %+v", p)
			}
		})
	}
}

func TestResolver_WithRealCodec(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), token.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	raw, err := codec.Issue("admin-1", model.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	p, err := NewResolver(codec, "").Resolve("Bearer " + raw)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Subject != "admin-1" || p.Role != model.RoleAdmin {
		t.Errorf("unexpected principal %+v", p)
	}
}
