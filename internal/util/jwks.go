package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK holds the members of EC and RSA public keys.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// ParseJWKS decodes a key set document.
func ParseJWKS(body []byte) (*JWKS, error) {
	var set JWKS
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse JWKS: %w", err)
	}
	if len(set.Keys) == 0 {
		return nil, errors.New("no keys found in JWKS")
	}
	return &set, nil
}

// Find returns the key with kid, or the first signing key when kid is empty.
func (s *JWKS) Find(kid string) (*JWK, error) {
	for i := range s.Keys {
		k := &s.Keys[i]
		if kid != "" && k.Kid == kid {
			return k, nil
		}
		if kid == "" && (k.Use == "" || k.Use == "sig") {
			return k, nil
		}
	}
	if kid != "" {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return nil, errors.New("no signing key in JWKS")
}

// PEM encodes the public key as PKIX, the format ValidateJWT expects for
// asymmetric tokens.
func (k *JWK) PEM() ([]byte, error) {
	var pub any
	switch k.Kty {
	case "EC":
		curve, err := ecCurve(k.Crv)
		if err != nil {
			return nil, err
		}
		x, err := b64Int(k.X)
		if err != nil {
			return nil, fmt.Errorf("decode x: %w", err)
		}
		y, err := b64Int(k.Y)
		if err != nil {
			return nil, fmt.Errorf("decode y: %w", err)
		}
		pub = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	case "RSA":
		n, err := b64Int(k.N)
		if err != nil {
			return nil, fmt.Errorf("decode n: %w", err)
		}
		e, err := b64Int(k.E)
		if err != nil {
			return nil, fmt.Errorf("decode e: %w", err)
		}
		pub = &rsa.PublicKey{N: n, E: int(e.Int64())}
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

func ecCurve(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	}
	return nil, fmt.Errorf("unsupported curve %q", crv)
}

func b64Int(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
