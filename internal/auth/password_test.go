package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("hunter22")
	require.NoError(t, err)
	second, err := h.Hash("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each hash should use a fresh salt")
	assert.NotContains(t, first, "hunter22")

	tests := []struct {
		name   string
		secret string
		digest string
		want   bool
	}{
		{name: "matching secret", secret: "hunter22", digest: first, want: true},
		{name: "matching secret, other salt", secret: "hunter22", digest: second, want: true},
		{name: "wrong secret", secret: "hunter23", digest: first, want: false},
		{name: "empty digest", secret: "hunter22", digest: "", want: false},
		{name: "malformed digest", secret: "hunter22", digest: "not-a-bcrypt-hash", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Verify(tt.secret, tt.digest))
		})
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(64).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
