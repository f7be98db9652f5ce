package sdk_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

func TestElementJSONFlattensFields(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	element := &sdk.Element{
		ID:        "c1",
		Name:      "Aria",
		CreatedAt: created,
		Fields: map[string]any{
			"location_id": "loc-1",
			"level":       3,
		},
	}

	data, err := json.Marshal(element)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "c1", wire["id"])
	assert.Equal(t, "Aria", wire["name"])
	assert.Equal(t, "loc-1", wire["location_id"])
	assert.Equal(t, "2024-03-01T09:30:00Z", wire["created_at"])
	assert.NotContains(t, wire, "updated_at")
	assert.NotContains(t, wire, "description")
	assert.NotContains(t, wire, "Fields")
}

func TestElementUnmarshal(t *testing.T) {
	data := []byte(`{
		"id": "c1",
		"name": "Aria",
		"description": null,
		"supertype": "protagonist",
		"world": "world-1",
		"created_at": "2024-03-01T09:30:00.123456Z",
		"updated_at": "not a time",
		"species_ids": ["sp-1", "sp-2"],
		"birth_date": null
	}`)

	var element sdk.Element
	require.NoError(t, json.Unmarshal(data, &element))

	assert.Equal(t, "c1", element.ID)
	assert.Equal(t, "protagonist", element.Supertype)
	assert.Equal(t, "", element.Description)
	assert.Equal(t, 123456000, element.CreatedAt.Nanosecond())
	assert.True(t, element.UpdatedAt.IsZero())
	assert.Equal(t, []any{"sp-1", "sp-2"}, element.Fields["species_ids"])
	assert.Contains(t, element.Fields, "birth_date")
	assert.Nil(t, element.Fields["birth_date"])
}

func TestElementFieldAndSet(t *testing.T) {
	element := &sdk.Element{}

	element.Set("name", "Aria")
	element.Set("rank", "captain")
	element.Set("created_at", "2024-03-01T09:30:00Z")

	assert.Equal(t, "Aria", element.Name)
	assert.Equal(t, "captain", element.Fields["rank"])
	assert.Equal(t, 2024, element.CreatedAt.Year())

	value, ok := element.Field("name")
	assert.True(t, ok)
	assert.Equal(t, "Aria", value)

	_, ok = element.Field("missing")
	assert.False(t, ok)
}

func TestElementClone(t *testing.T) {
	original := &sdk.Element{Name: "Aria", Fields: map[string]any{"rank": "captain"}}

	clone := original.Clone()
	clone.Name = "Bram"
	clone.Fields["rank"] = "scout"
	clone.Fields["new"] = true

	assert.Equal(t, "Aria", original.Name)
	assert.Equal(t, "captain", original.Fields["rank"])
	assert.NotContains(t, original.Fields, "new")

	var missing *sdk.Element
	assert.Nil(t, missing.Clone())
}

func TestElementToMapKeepsInexactBaseValues(t *testing.T) {
	data := []byte(`{"id":"e1","name":"A","description":"","subtype":null,"world":42,"updated_at":"2024-01-01 12:00:00"}`)

	var element sdk.Element
	require.NoError(t, json.Unmarshal(data, &element))
	assert.Equal(t, "42", element.World)

	m := element.ToMap()
	assert.Equal(t, "", m["description"])
	assert.Contains(t, m, "subtype")
	assert.Nil(t, m["subtype"])
	assert.Equal(t, float64(42), m["world"])
	assert.Equal(t, "2024-01-01 12:00:00", m["updated_at"])

	element.Description = "Rewritten"
	element.World = "world-1"
	m = element.ToMap()
	assert.Equal(t, "Rewritten", m["description"])
	assert.Equal(t, "world-1", m["world"])
	assert.Equal(t, "2024-01-01 12:00:00", m["updated_at"])
}
