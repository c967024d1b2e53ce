package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxRoundTrip(t *testing.T) {
	box := NewBox("passphrase")
	sealed, err := box.Seal("refresh-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "refresh-token")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", plain)
}

func TestBoxWrongKey(t *testing.T) {
	sealed, err := NewBox("one").Seal("token")
	require.NoError(t, err)

	_, err = NewBox("two").Open(sealed)
	assert.ErrorIs(t, err, ErrOpen)

	var nilBox *Box
	_, err = nilBox.Open(sealed)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestNilBoxPassesThrough(t *testing.T) {
	var box *Box = NewBox("")
	sealed, err := box.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	opened, err := NewBox("key").Open("legacy-plain")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain", opened)
}
