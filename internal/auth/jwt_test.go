package auth

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

	"github.com/minhdn/towerdesk/internal/config"
	"github.com/minhdn/towerdesk/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func unverifiedVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(config.AuthConfig{AllowUnverified: true}, silentLog())
	require.NoError(t, err)
	return v
}

func signHS(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

// --- Verify tests ---

func TestVerifyRequiresKeyOrExplicitOptOut(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{}, silentLog())
	assert.Error(t, err)
}

func TestVerifyUnverifiedMode(t *testing.T) {
	v := unverifiedVerifier(t)
	raw := signHS(t, jwt.MapClaims{"building_id": "buildingA"})

	claims, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "buildingA", claims["building_id"])
}

func TestVerifyMalformedToken(t *testing.T) {
	v := unverifiedVerifier(t)
	_, err := v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerifyExpiredTokenRejectedEvenUnverified(t *testing.T) {
	v := unverifiedVerifier(t)
	raw := signHS(t, jwt.MapClaims{
		"building_id": "buildingA",
		"exp":         time.Now().Add(-time.Hour).Unix(),
	})
	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerifyWithPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewVerifier(config.AuthConfig{PublicKey: string(pemKey)}, silentLog())
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"building_id": "buildingB",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	claims, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "buildingB", v.BuildingID(claims))

	// HS256 token signed with a shared secret must be rejected outright.
	_, err = v.Verify(signHS(t, jwt.MapClaims{"building_id": "x"}))
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

// --- BuildingID precedence tests ---

func TestBuildingIDDirectClaim(t *testing.T) {
	v := unverifiedVerifier(t)
	assert.Equal(t, "buildingA", v.BuildingID(Claims{"building_id": "buildingA"}))
}

func TestBuildingIDCustomClaims(t *testing.T) {
	v := unverifiedVerifier(t)
	claims := Claims{
		"custom_claims": map[string]any{"building_id": "buildingB"},
	}
	assert.Equal(t, "buildingB", v.BuildingID(claims))
}

func TestBuildingIDDirectWinsOverCustom(t *testing.T) {
	v := unverifiedVerifier(t)
	claims := Claims{
		"building_id":   "direct",
		"custom_claims": map[string]any{"building_id": "nested"},
	}
	assert.Equal(t, "direct", v.BuildingID(claims))
}

func TestBuildingIDRealmRoleHeuristic(t *testing.T) {
	v := unverifiedVerifier(t)
	claims := Claims{
		"realm_access": map[string]any{
			"roles": []any{"offline_access", "Building_C_resident", "uma_authorization"},
		},
	}
	assert.Equal(t, "Building_C_resident", v.BuildingID(claims))
}

func TestBuildingIDAbsent(t *testing.T) {
	v := unverifiedVerifier(t)
	claims := Claims{
		"sub":          "user-1",
		"realm_access": map[string]any{"roles": []any{"offline_access"}},
	}
	assert.Equal(t, "", v.BuildingID(claims))
}

func TestBuildingIDOverridableChain(t *testing.T) {
	v := unverifiedVerifier(t)
	v.SetExtractors([]ClaimExtractor{func(c Claims) string {
		if id, ok := c["tenant"].(string); ok {
			return id
		}
		return ""
	}})
	assert.Equal(t, "override", v.BuildingID(Claims{"tenant": "override", "building_id": "ignored"}))
}
