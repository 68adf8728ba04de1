package service

import (
	"context"
	"fmt"

	"bingohub/models"
)

// Identity is the signed-in user as reported by the identity provider.
// The zero value is an anonymous caller.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// IsAuthenticated reports whether the identity carries a subject id
func (i Identity) IsAuthenticated() bool {
	return i.UID != ""
}

func (i Identity) validate() error {
	if !i.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := models.ValidateUID(i.UID); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return nil
}

// displayName falls back to the uid so every player has a visible name
func (i Identity) displayName() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.UID
}

type identityKey struct{}

// WithIdentity attaches an identity to ctx for transport adapters
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity attached by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok && identity.IsAuthenticated()
}
