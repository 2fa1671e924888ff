package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "courtyard-test")

	token, err := manager.Generate("user-123", "building-7", "resident")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "building-7", claims.BuildingID)
	assert.Equal(t, "resident", claims.Role)
	assert.Equal(t, "courtyard-test", claims.Issuer)
}

func TestGenerateRejectsEmptyFields(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "courtyard-test")

	_, err := manager.Generate("", "building-7", "resident")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = manager.Generate("user-123", "", "resident")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = manager.Generate("user-123", "building-7", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-one", time.Hour, "courtyard-test")
	other := NewJWTManager("secret-two", time.Hour, "courtyard-test")

	token, err := manager.Generate("user-123", "building-7", "manager")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute, "courtyard-test")

	token, err := manager.Generate("user-123", "building-7", "resident")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsBlank(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "courtyard-test")
	_, err := manager.Validate("  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", false},
		{"empty", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"missing token", "Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenFromHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
