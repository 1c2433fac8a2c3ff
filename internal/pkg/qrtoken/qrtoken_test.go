package qrtoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	token := Issue(42, "secret")
	id, err := Verify(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestVerify_RejectsTampering(t *testing.T) {
	token := Issue(42, "secret")

	// Swap the reservation ID, keep the signature.
	parts := strings.SplitN(token, ".", 2)
	forged := "43." + parts[1]
	_, err := Verify(forged, "secret")
	assert.ErrorIs(t, err, ErrTokenSignature)

	// Wrong secret.
	_, err = Verify(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenSignature)

	// Garbage.
	_, err = Verify("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
