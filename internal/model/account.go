package model

import (
	"errors"
	"strings"
	"time"
)

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AnonymousName is the placeholder stored when the identity provider had no
// display name at first sign-in. A later sync with a real name replaces it.
const AnonymousName = "Anonymous"

// Account represents one end user, keyed by the identity provider's subject id.
type Account struct {
	UID       string    `db:"uid" json:"uid"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  string    `db:"photo_url" json:"photoURL"`
	Role      string    `db:"role" json:"role"`
	IsPremium bool      `db:"is_premium" json:"isPremium"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Snapshot copies the public fields embedded into lessons at creation time.
func (a *Account) Snapshot() Creator {
	return Creator{
		Name:     a.Name,
		Email:    a.Email,
		UID:      a.UID,
		PhotoURL: a.PhotoURL,
	}
}

// SyncAccountRequest is the body of POST /users. Identity fields come from
// the verified token; the body may only contribute profile hints.
type SyncAccountRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// UpdateProfileRequest is the body of PUT /users/update-profile. UID names
// the target account and defaults to the caller.
type UpdateProfileRequest struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// AccountPatch is the allow-listed admin patch. Nil fields are left alone.
type AccountPatch struct {
	Role      *string `json:"role"`
	IsPremium *bool   `json:"isPremium"`
}

func (p AccountPatch) Validate() error {
	if p.Role == nil && p.IsPremium == nil {
		return ErrEmptyPatch
	}
	if p.Role != nil && !ValidRole(*p.Role) {
		return ErrInvalidRole
	}
	return nil
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// AccountStatus is returned by GET /users/status/{email}.
type AccountStatus struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsPremium bool   `json:"isPremium"`
}

// NormalizeEmail lower-cases and trims an address before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	// ErrAccountNotFound is returned when an account cannot be found
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when another subject already owns the email
	ErrEmailTaken = errors.New("email already belongs to another account")

	ErrInvalidRole   = errors.New("invalid role")
	ErrEmptyPatch    = errors.New("patch has no fields")
	ErrEmailRequired = errors.New("email is required")
	ErrNameRequired  = errors.New("name is required")
)
