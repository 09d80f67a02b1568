package contexthelpers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/board", nil)
	require.Empty(t, contexthelpers.GameID(r.Context()))

	r = contexthelpers.SetGameID(r, "g1")
	r = contexthelpers.SetCSRFToken(r, "token")
	r = contexthelpers.SetCSPNonce(r, "nonce")

	ctx := r.Context()
	require.Equal(t, "g1", contexthelpers.GameID(ctx))
	require.Equal(t, "token", contexthelpers.CSRFToken(ctx))
	require.Equal(t, "nonce", contexthelpers.CSPNonce(ctx))
	require.Empty(t, contexthelpers.CSPNonce(context.Background()))
}
