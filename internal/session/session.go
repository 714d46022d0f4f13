package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the signed session token.
const CookieName = "portal_session"

const issuer = "academic-portal"

// Claims is the session token payload; the subject is the external student
// id that logged in.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and validates signed session tokens (HS256).
type Manager struct {
	key []byte
	ttl time.Duration
}

// NewManager creates a manager signing with the configured secret key.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{key: []byte(secret), ttl: ttl}
}

// TTL returns the session lifetime, used to bound the cookie max-age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the given external student id.
func (m *Manager) Issue(studentID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   studentID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Parse validates a token and returns the external student id it was issued
// for.
func (m *Manager) Parse(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.Issuer != issuer {
		return "", errors.New("issuer mismatch")
	}
	if claims.Subject == "" {
		return "", errors.New("empty subject")
	}
	return claims.Subject, nil
}
