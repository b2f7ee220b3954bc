package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokenRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := Default.LoadToken("http://localhost:8080")
	assert.True(t, errors.Is(err, ErrNotAuthenticated))

	require.NoError(t, Default.SaveToken("http://localhost:8080", "tok-a"))
	require.NoError(t, Default.SaveToken("http://other:8080", "tok-b"))

	token, err := Default.LoadToken("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", token)

	require.NoError(t, Default.DeleteToken("http://localhost:8080"))
	_, err = Default.LoadToken("http://localhost:8080")
	assert.True(t, errors.Is(err, ErrNotAuthenticated))

	// Deleting twice is not an error
	require.NoError(t, Default.DeleteToken("http://localhost:8080"))

	token, err = Default.LoadToken("http://other:8080")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", token)
}
