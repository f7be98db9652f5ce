package sdk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

func TestKeyAuth(t *testing.T) {
	tests := []struct {
		name string
		auth sdk.KeyAuth
		want bool
	}{
		{"key and pin", sdk.KeyAuth{Key: "world-1", Pin: "1234"}, true},
		{"missing pin", sdk.KeyAuth{Key: "world-1"}, false},
		{"missing key", sdk.KeyAuth{Pin: "1234"}, false},
		{"empty", sdk.KeyAuth{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.auth.IsAuthenticated())
		})
	}
}

func TestKeyAuthHeadersAndWorld(t *testing.T) {
	auth := sdk.KeyAuth{Key: "world-1", Pin: "1234"}

	headers := auth.Headers()
	assert.Equal(t, "world-1", headers.Get(sdk.HeaderAPIKey))
	assert.Equal(t, "1234", headers.Get(sdk.HeaderAPIPin))
	assert.Equal(t, "world-1", auth.World())
}
