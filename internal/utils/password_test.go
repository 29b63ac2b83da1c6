package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "pw", h)
	assert.True(t, VerifyPassword(h, "pw"))
	assert.False(t, VerifyPassword(h, "PW"))
	assert.False(t, VerifyPassword("not-a-hash", "pw"))
}

func TestBurnCompare(t *testing.T) {
	assert.NotPanics(t, func() {
		BurnCompare("anything", bcrypt.MinCost)
		BurnCompare("again", bcrypt.MinCost)
	})
}
