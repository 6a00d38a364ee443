package credentials

// Persisted key names.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
	UsernameKey     = "username"
	EmailKey        = "email"
	RoleKey         = "role"
	FirstNameKey    = "first_name"
	LastNameKey     = "last_name"
)

// SessionKeys returns every key cleared on teardown.
func SessionKeys() []string {
	return []string{
		AccessTokenKey,
		RefreshTokenKey,
		UsernameKey,
		EmailKey,
		RoleKey,
		FirstNameKey,
		LastNameKey,
	}
}
