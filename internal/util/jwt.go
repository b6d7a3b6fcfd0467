package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the hosted auth service puts in its access tokens.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

func parsePKIX(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

var (
	hmacMethods  = []string{"HS256", "HS384", "HS512"}
	rsaMethods   = []string{"RS256", "RS384", "RS512"}
	ecdsaMethods = []string{"ES256", "ES384", "ES512"}
	ErrPEMAsHMAC = errors.New("PEM key material cannot be used as an HMAC secret")
	ErrEmptyKey  = errors.New("JWT key material is empty")
)

// IsPEMKey reports whether keyMaterial holds a PEM block rather than a
// shared secret.
func IsPEMKey(keyMaterial string) bool {
	block, _ := pem.Decode([]byte(strings.TrimSpace(keyMaterial)))
	return block != nil
}

// verificationKey picks the key and the accepted algorithms from the key
// material alone. The token header never widens the set.
func verificationKey(keyMaterial string) (any, []string, error) {
	if keyMaterial == "" {
		return nil, nil, ErrEmptyKey
	}
	if !IsPEMKey(keyMaterial) {
		return []byte(keyMaterial), hmacMethods, nil
	}
	pub, err := parsePKIX(strings.TrimSpace(keyMaterial))
	if err != nil {
		return nil, nil, err
	}
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return k, rsaMethods, nil
	case *ecdsa.PublicKey:
		return k, ecdsaMethods, nil
	default:
		return nil, nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}

// ValidateJWT verifies a token with keyMaterial. A PEM public key accepts
// only RS* or ES* tokens; anything else is a shared secret and accepts only HS*.
func ValidateJWT(tokenString string, keyMaterial string) (*Claims, error) {
	key, methods, err := verificationKey(keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification key: %w", err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods(methods),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SignHS256 issues a token in the hosted service's shape. Only the demo
// session uses it; real sessions are always minted by the hosted service.
func SignHS256(secret, subject, email, name string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyKey
	}
	if IsPEMKey(secret) {
		return "", ErrPEMAsHMAC
	}
	now := time.Now()
	claims := Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: map[string]any{"name": name},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
