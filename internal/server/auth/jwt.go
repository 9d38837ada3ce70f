// Package auth holds the credential primitives of the server: password
// hashing and signed session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens. A token of one
// type is never accepted where the other is required.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the claim set carried by both token types. Email and Name are
// only set on access tokens and reflect the account at issuance time.
type Claims struct {
	Email string    `json:"email,omitempty"`
	Name  *string   `json:"name,omitempty"`
	Type  TokenType `json:"type"`
	jwt.RegisteredClaims
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// Codec issues and decodes HMAC-signed JWTs with a fixed algorithm and
// secret. It holds no mutable state.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewCodec builds a Codec for an HMAC algorithm name ("HS256", "HS384",
// "HS512").
func NewCodec(secret, algorithm string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	c := &Codec{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueAccess signs a short-lived access token for subject.
func (c *Codec) IssueAccess(subject, email string, name *string, ttl time.Duration) (string, error) {
	if name == nil {
		empty := ""
		name = &empty
	}
	return c.issue(Claims{Email: email, Name: name, Type: TokenTypeAccess}, subject, ttl)
}

// IssueRefresh signs a long-lived refresh token for subject.
func (c *Codec) IssueRefresh(subject string, ttl time.Duration) (string, error) {
	return c.issue(Claims{Type: TokenTypeRefresh}, subject, ttl)
}

func (c *Codec) issue(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Decode verifies the signature and algorithm of token and returns its
// claims. It fails with common.ErrTokenExpired once exp has passed and with
// common.ErrInvalidToken for anything else that is wrong with the token.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: unknown token type %q", common.ErrInvalidToken, claims.Type)
	}

	return claims, nil
}
