package sdk_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

var canonicalID = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewIDFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := sdk.NewID()
		require.Regexp(t, canonicalID, id)
		assert.Equal(t, byte('7'), id[14])
	}
}

func TestNewIDUnique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := sdk.NewID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewIDTimeOrdered(t *testing.T) {
	first := sdk.NewID()
	second := sdk.NewID()

	// The leading 48 bits are a millisecond timestamp.
	assert.LessOrEqual(t, first[:13], second[:13])
}

func TestParseID(t *testing.T) {
	id := sdk.NewID()

	parsed, err := sdk.ParseID(id)
	require.NoError(t, err)
	assert.Equal(t, id, parsed.String())

	_, err = sdk.ParseID("not-an-id")
	assert.Error(t, err)
}
