package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T, ttl time.Duration) (*Manager, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewManager(priv, &priv.PublicKey, Config{Issuer: "billing", Audience: "backoffice", TTL: ttl, KID: "k1"}), priv
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m, _ := testManager(t, time.Hour)

	token, jti, expiresAt, err := m.Generator.GenerateAccessToken(42, "ops@example.com", []string{"admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.OperatorID)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("viewer"))
}

func TestVerifier_RejectsForeignIssuerAndExpired(t *testing.T) {
	m, priv := testManager(t, time.Hour)

	other := NewGenerator(priv, "someone-else", "backoffice", "", time.Hour)
	token, _, _, err := other.GenerateAccessToken(1, "a@b.c", nil)
	require.NoError(t, err)
	_, err = m.Verifier.VerifyAccessToken(token)
	assert.Error(t, err)

	expired := NewGenerator(priv, "billing", "backoffice", "", -time.Minute)
	token, _, _, err = expired.GenerateAccessToken(1, "a@b.c", nil)
	require.NoError(t, err)
	_, err = m.Verifier.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestParseKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	parsed, err := ParseRSAPrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))
	require.NoError(t, err)
	assert.True(t, priv.Equal(parsed))

	pkix, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pub, err := ParseRSAPublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}))
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(pub))

	_, err = ParseRSAPrivateKey([]byte("not pem"))
	assert.Error(t, err)
}

func TestVerifier_RejectsOtherPurpose(t *testing.T) {
	m, priv := testManager(t, time.Hour)

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		OperatorID: 7,
		Purpose:    "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "billing",
			Audience:  jwt.ClaimStrings{"backoffice"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)

	_, err = m.Verifier.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestClaims_Remaining(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(90 * time.Second))}}

	assert.Equal(t, 90*time.Second, c.Remaining(now))
	assert.Zero(t, c.Remaining(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).Remaining(now))
}
