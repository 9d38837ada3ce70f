// Package common contains shared constants and sentinel errors used across
// zia components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenTypeBearer is reported to clients in token responses.
	TokenTypeBearer = "bearer"

	// MinPasswordLength is the only password strength rule. It is not configurable.
	MinPasswordLength = 6
)
