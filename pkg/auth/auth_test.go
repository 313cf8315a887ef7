package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhoward/shiftgrid-api/pkg/config"
)

func configureTest() {
	Configure(config.AuthConfig{JWTSecret: "test-jwt-secret", ExportSecret: "test-export-secret"})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("hunter2", hash))
	assert.False(t, CheckPasswordHash("hunter3", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	configureTest()

	token, err := CreateToken("alice", true)
	require.NoError(t, err)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	configureTest()

	_, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestExportKeyRoundTrip(t *testing.T) {
	configureTest()

	key := GenerateExportKey("reporting")
	name, err := VerifyExportKey(key)
	require.NoError(t, err)
	assert.Equal(t, "reporting", name)
}

func TestVerifyExportKeyRejectsTampered(t *testing.T) {
	configureTest()

	key := GenerateExportKey("reporting")
	parts := strings.SplitN(key, ".", 2)

	_, err := VerifyExportKey("other." + parts[1])
	assert.Error(t, err)

	_, err = VerifyExportKey("no-signature")
	assert.Error(t, err)
}
