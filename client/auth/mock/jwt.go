package mock

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gravitational/trace"
)

const (
	accessTokenType  = "access_token"
	refreshTokenType = "refresh_token"
)

// createJWT creates a signed JWT for username with the given type and expiry
func (m *APIService) createJWT(username, tokenType string, generation int, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": m.Issuer,
		"sub": username,
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
		"typ": tokenType,
		"gen": generation,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.PrivateKey)
}

// parseJWT verifies token and returns its claims when it is of tokenType.
func (m *APIService) parseJWT(token, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return &m.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, trace.AccessDenied("invalid token: %v", err)
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return nil, trace.AccessDenied("unexpected token type %q", typ)
	}
	return claims, nil
}

// validAccess verifies an access token against the current generation.
func (m *APIService) validAccess(token string) (jwt.MapClaims, error) {
	claims, err := m.parseJWT(token, accessTokenType)
	if err != nil {
		return nil, err
	}
	generation, _ := claims["gen"].(float64)
	m.mu.Lock()
	current := m.generation
	m.mu.Unlock()
	if int(generation) != current {
		return nil, trace.AccessDenied("token expired")
	}
	return claims, nil
}
