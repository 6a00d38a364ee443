package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jrsteele09/wakelni-client/credentials"
)

// RoleType is the account role assigned by the backend
type RoleType string

const (
	RoleAdmin  RoleType = "ADMIN"     // Back-office administrator
	RoleClient RoleType = "CLIENT"    // Orders dishes
	RoleCook   RoleType = "CUISINIER" // Publishes dishes and fulfils orders
)

const minPasswordLength = 6

type User struct {
	ID        int64    `json:"id,omitempty"`         // Backend identifier
	Username  string   `json:"username,omitempty"`   // Unique username
	Email     string   `json:"email,omitempty"`      // User's email address
	FirstName string   `json:"first_name,omitempty"` // First name of the user
	LastName  string   `json:"last_name,omitempty"`  // Last name of the user
	Role      RoleType `json:"role,omitempty"`       // CLIENT, CUISINIER or ADMIN
	AvatarURL string   `json:"avatar_url,omitempty"` // Public avatar image

	// Client fields
	MainAddress string `json:"adresse_principale,omitempty"`
	Preferences string `json:"preferences,omitempty"`

	// Cook fields
	Bio           string   `json:"bio,omitempty"`
	Address       string   `json:"adresse,omitempty"`
	AverageRating *float64 `json:"note_moyenne,omitempty"`
	Active        *bool    `json:"actif,omitempty"`
}

// ProfileUpdate is a partial update of the signed-in user. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	MainAddress *string `json:"adresse_principale,omitempty"`
	Preferences *string `json:"preferences,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Address     *string `json:"adresse,omitempty"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      RoleType `json:"role,omitempty"`
}

// Validate checks the fields the backend would reject before any request is sent.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if r.Role != "" && !r.Role.Valid() {
		return fmt.Errorf("unknown role %q", r.Role)
	}
	return ValidatePasswordStrength(r.Password)
}

// ValidatePasswordStrength checks the backend's password rules:
// - At least 6 characters long
// - Not only whitespace
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	for _, char := range password {
		if !unicode.IsSpace(char) {
			return nil
		}
	}
	return fmt.Errorf("password must not be blank")
}

func (r RoleType) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleCook:
		return true
	}
	return false
}

func (u *User) IsCook() bool {
	return u.Role == RoleCook
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// DisplayName returns "First Last", falling back to the username and then the email.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	switch {
	case full != "":
		return full
	case u.Username != "":
		return u.Username
	}
	return u.Email
}

// Profile returns the attributes cached next to the session credentials.
func (u *User) Profile() credentials.Profile {
	return credentials.Profile{
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
