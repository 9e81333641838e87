package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefreshAllowed(t *testing.T) {
	require.True(t, RefreshAllowed("active"))
	require.True(t, RefreshAllowed("pending"))

	// Suspension must kill token rotation, not just fresh logins.
	require.False(t, RefreshAllowed("suspended"))
}
