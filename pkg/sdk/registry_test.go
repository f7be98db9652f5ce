package sdk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

func TestElementTypes(t *testing.T) {
	assert.Len(t, sdk.ElementTypes, 22)

	for _, elementType := range sdk.ElementTypes {
		assert.True(t, sdk.IsElementType(elementType))
		assert.NotEmpty(t, sdk.Label(elementType), elementType)
		assert.NotEmpty(t, sdk.Icon(elementType), elementType)
	}

	assert.False(t, sdk.IsElementType("not_a_type"))
	assert.False(t, sdk.IsElementType("Character"))
	assert.False(t, sdk.IsElementType(""))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Species", sdk.Label("species"))
	assert.Equal(t, "Phenomena", sdk.Label("phenomenon"))
	assert.Equal(t, "Dragon", sdk.Label("dragon"))
	assert.Equal(t, "", sdk.Label(""))
	assert.Equal(t, "", sdk.Icon("dragon"))
}

func TestCommonSupertypes(t *testing.T) {
	for elementType := range sdk.CommonSupertypes {
		assert.True(t, sdk.IsElementType(elementType), elementType)
	}
	assert.Contains(t, sdk.CommonSupertypes["location"], "city")
}
