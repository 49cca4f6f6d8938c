package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopboard/shopboard-backend/pkg/config"
	"github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/principal"
)

// Claims represents the JWT claims carried by an access token
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// GenerateToken signs an access token for the given principal. The
// board service itself never issues credentials in production; this
// exists for local development and tests.
func (m *Manager) GenerateToken(p *principal.Principal) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email:    p.Email,
		Role:     string(p.Role),
		TenantID: p.TenantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.AuthRequired("credential is invalid")
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.AuthRequired("credential is expired")
		}
		return nil, errors.AuthRequired("credential is invalid")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.AuthRequired("credential is invalid")
	}

	return claims, nil
}

// Principal builds the request principal from validated claims
func (c *Claims) Principal() *principal.Principal {
	return &principal.Principal{
		ID:       c.Subject,
		Email:    c.Email,
		Role:     principal.Role(c.Role),
		TenantID: c.TenantID,
	}
}
