package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateHS256(t *testing.T) {
	token, err := SignHS256("secret", "demo-user", "demo@stepable.com", "Demo User", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "demo-user", claims.Subject)
	assert.Equal(t, "demo@stepable.com", claims.Email)
	assert.Equal(t, "Demo User", claims.UserMetadata["name"])
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := SignHS256("secret", "u1", "a@b.c", "A", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other")
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := SignHS256("secret", "u1", "a@b.c", "A", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", "secret")
	assert.Error(t, err)
}

func publicPEM(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestValidateJWTRejectsHMACSignedWithPublicKey(t *testing.T) {
	_, pubPEM := publicPEM(t)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "victim",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(pubPEM))
	require.NoError(t, err)

	_, err = ValidateJWT(forged, pubPEM)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestSignHS256RefusesPEMKey(t *testing.T) {
	_, pubPEM := publicPEM(t)

	_, err := SignHS256(pubPEM, "u1", "a@b.c", "A", time.Hour)
	assert.ErrorIs(t, err, ErrPEMAsHMAC)

	_, err = SignHS256("", "u1", "a@b.c", "A", time.Hour)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestValidateJWTSecretRejectsAsymmetricToken(t *testing.T) {
	priv, _ := publicPEM(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestIsPEMKey(t *testing.T) {
	_, pubPEM := publicPEM(t)
	assert.True(t, IsPEMKey(pubPEM))
	assert.True(t, IsPEMKey("\n"+pubPEM))
	assert.False(t, IsPEMKey("super-secret-jwt-token-with-at-least-32-characters"))
}
