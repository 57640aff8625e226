package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("kind matches with errors.Is", func(t *testing.T) {
		err := New(ErrNotFound, CodeVerificationMethodNotFound, "did:x:abc#missing")

		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrSignatureInvalid))
		assert.True(t, IsNotFound(err))
		assert.Equal(t, CodeVerificationMethodNotFound, CodeOf(err))
		assert.Equal(t, "did:x:abc#missing", IDOf(err))
		assert.Equal(t, "notFound: verificationMethodNotFound [did:x:abc#missing]", err.Error())
	})

	t.Run("kind survives fmt wrapping", func(t *testing.T) {
		cause := errors.New("bad bytes")
		err := fmt.Errorf("failed to verify: %w", Wrap(ErrSignatureInvalid, "", "", cause))

		assert.True(t, IsSignatureInvalid(err))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, IsResolutionFailed(err))
		assert.Contains(t, err.Error(), "signatureInvalid: bad bytes")
	})

	t.Run("Newf", func(t *testing.T) {
		err := Newf(ErrOutOfRange, "index %d outside [0,%d)", 8, 8)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOutOfRange))
		assert.Empty(t, CodeOf(err))
		assert.Equal(t, "outOfRange: index 8 outside [0,8)", err.Error())
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.Empty(t, CodeOf(errors.New("plain")))
		assert.False(t, IsConflict(errors.New("plain")))
		assert.True(t, IsConflict(ErrConflict))
	})
}
