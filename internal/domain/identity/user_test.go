package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates customer with hashed password", func(t *testing.T) {
		u, err := NewUser(" Jamie@Example.com ", "secret123", "Jamie")
		require.NoError(t, err)
		assert.Equal(t, "jamie@example.com", u.Email)
		assert.Equal(t, RoleCustomer, u.Role)
		assert.NotEqual(t, "secret123", u.PasswordHash)
		assert.True(t, u.VerifyPassword("secret123"))
		assert.False(t, u.VerifyPassword("wrong"))
		assert.False(t, u.IsAdmin())
		assert.True(t, u.CanLogin())
	})

	tests := []struct {
		name     string
		email    string
		password string
		contains string
	}{
		{"invalid email", "jamie", "secret123", "email"},
		{"display-name email", "Jamie <jamie@example.com>", "secret123", "email"},
		{"short password", "a@example.com", "abc1", "at least 8"},
		{"password without digits", "a@example.com", "abcdefghij", "letter and one number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.password, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestUser_SetRole(t *testing.T) {
	u := &User{Role: RoleCustomer}
	require.NoError(t, u.SetRole(RoleAdmin))
	assert.True(t, u.IsAdmin())
	assert.Error(t, u.SetRole("owner"))
}
