package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	id, err := NewSessionID(" 3F2504E0-4F89-11D3-9A0C-0305E82C3301 ")
	require.NoError(t, err)
	assert.Equal(t, SessionID("3f2504e0-4f89-11d3-9a0c-0305e82c3301"), id)

	_, err = NewSessionID("not-a-uuid")
	assert.True(t, IsValidation(err))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, Percent(50), PercentOf(8, 16))
	assert.Equal(t, Percent(0), PercentOf(3, 0))
	assert.Equal(t, "43%", PercentOf(6, 14).String())
	assert.Equal(t, 82, FromFraction(980.0/1200.0).Rounded())
}

func TestDomainError_Classification(t *testing.T) {
	err := WrapError("kit", "Toggle", ErrNotFound, "item jetpack", ErrItemNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Contains(t, err.Error(), "kit.Toggle")

	assert.True(t, IsValidation(ErrUnknownEvent))
	assert.True(t, IsExternalService(WrapError("redis", "List", ErrServiceUnavailable, "down", nil)))
}
