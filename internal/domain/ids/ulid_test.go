package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	first, err := NewULID()
	require.NoError(t, err)
	second, err := NewULID()
	require.NoError(t, err)

	assert.Len(t, first, 26)
	assert.NotEqual(t, first, second)
	assert.True(t, IsULID(first))
}

func TestValidateULID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "01HQZX3Y4K6F7G8H9J0K1M2N3P", false},
		{"lowercase", "01hqzx3y4k6f7g8h9j0k1m2n3p", false},
		{"padded", "  01HQZX3Y4K6F7G8H9J0K1M2N3P ", false},
		{"empty", "", true},
		{"too short", "01HQZX3Y4K", true},
		{"excluded letters", "01HQZX3Y4K6F7G8H9J0K1M2NIL", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateULID(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidULID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
