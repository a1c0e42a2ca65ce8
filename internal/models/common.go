package models

//nolint:gosec //file not handles sensitive data
const (
	MwUserIDKey = "userID"
	MwRoleKey   = "role"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	RefreshTokenHeader  = "X-Refresh-Token"
	RenewedTokenHeader  = "X-Access-Token"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}
