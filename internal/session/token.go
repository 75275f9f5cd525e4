package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/terra-clan/academy-console/internal/models"
)

// ErrEmptyToken is returned when a login yields no token
var ErrEmptyToken = errors.New("empty token")

// TokenDecoder extracts the role claim from an auth token.
// With a secret it verifies HMAC signatures; without one it only decodes,
// leaving verification to the API that issued the token.
type TokenDecoder struct {
	secret []byte
}

// NewTokenDecoder creates a decoder. secret may be empty.
func NewTokenDecoder(secret string) *TokenDecoder {
	return &TokenDecoder{secret: []byte(secret)}
}

// Claims returns the token's claims
func (d *TokenDecoder) Claims(token string) (jwt.MapClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	if len(d.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// Role reads the role from the role, roles or authorities claim
func (d *TokenDecoder) Role(token string) (models.Role, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return models.RoleUnknown, err
	}

	for _, name := range []string{"role", "roles", "authorities"} {
		switch v := claims[name].(type) {
		case string:
			if r := models.ParseRole(v); r != models.RoleUnknown {
				return r, nil
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					if r := models.ParseRole(s); r != models.RoleUnknown {
						return r, nil
					}
				}
			}
		}
	}
	return models.RoleUnknown, nil
}

// FromToken builds the session written at login. The user record's role wins;
// the token's role claim fills in when the record carries none.
func (d *TokenDecoder) FromToken(token string, user *models.User) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	role := models.RoleUnknown
	if user != nil {
		role = models.ParseRole(user.Role)
	}
	if role == models.RoleUnknown {
		r, err := d.Role(token)
		if err != nil {
			return nil, err
		}
		role = r
	}

	now := time.Now().UTC()
	return &models.Session{
		Token:     token,
		User:      user,
		Role:      role,
		LoginAt:   now,
		UpdatedAt: now,
	}, nil
}
