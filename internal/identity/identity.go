// Package identity verifies bearer tokens issued by the external identity
// provider and pushes profile changes back to it.
package identity

import (
	"context"
	"errors"
)

// Identity is the verified subject behind a bearer token.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ProfileUpdater writes display name and photo to the provider's user record.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, uid, name, photoURL string) error
}

// Provider is both halves; every implementation here satisfies it.
type Provider interface {
	Verifier
	ProfileUpdater
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
