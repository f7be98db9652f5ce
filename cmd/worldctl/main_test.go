package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sumandas0/worldkit/internal/mockapi"
)

type testWorld struct {
	fake       *mockapi.Server
	configPath string
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	mockConfig := mockapi.DefaultConfig()
	mockConfig.Prefix = "/api/worldapi"
	fake := mockapi.NewServer(mockConfig)
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)

	fake.Store().Seed("location",
		mockapi.Record{"id": "loc-1", "name": "Silverkeep", "world": "world-1", "supertype": "city"},
		mockapi.Record{"id": "loc-2", "name": "Ironhold", "world": "world-1"},
	)
	fake.Store().Seed("character",
		mockapi.Record{"id": "c1", "name": "<b>Aria</b>", "world": "world-1", "location_id": "loc-1"},
	)

	configPath := filepath.Join(t.TempDir(), "worldkit.yaml")
	content := fmt.Sprintf(`
api:
  base_url: %s/api/worldapi
  key: world-1
  pin: "1234"
logging:
  level: error
`, ts.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return &testWorld{fake: fake, configPath: configPath}
}

func (w *testWorld) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", w.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestTypesCommand(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "types", "-o", "json")
	require.NoError(t, err)

	var types []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &types))
	assert.Len(t, types, 22)
	assert.Equal(t, 0, world.fake.Journal().Count())
}

func TestListCommand(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "list", "location")
	require.NoError(t, err)
	assert.Contains(t, out, "loc-1  Silverkeep [city]")
	assert.Contains(t, out, "2 locations")

	out, err = world.execute(t, "list", "location", "--filter", "supertype=city", "-o", "json")
	require.NoError(t, err)
	var elements []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &elements))
	require.Len(t, elements, 1)
	assert.Equal(t, "loc-1", elements[0]["id"])
}

func TestGetCommandResolvesAndSanitizes(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "get", "character", "c1", "--resolve")
	require.NoError(t, err)
	assert.Contains(t, out, "Aria (c1)")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "location_id_resolved: Silverkeep (loc-1)")
}

func TestGetCommandYAML(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "get", "location", "loc-2", "-o", "yaml")
	require.NoError(t, err)

	var element map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &element))
	assert.Equal(t, "Ironhold", element["name"])
}

func TestGetCommandHidesUnsafeImageLinks(t *testing.T) {
	world := newTestWorld(t)
	world.fake.Store().Seed("map",
		mockapi.Record{"id": "m1", "name": "Old Chart", "world": "world-1", "image_url": "javascript:alert(1)"},
		mockapi.Record{"id": "m2", "name": "New Chart", "world": "world-1", "image_url": " https://maps.example.com/m2.png "},
	)

	out, err := world.execute(t, "get", "map", "m1")
	require.NoError(t, err)
	assert.Contains(t, out, "image_url: (unsafe link hidden)")
	assert.NotContains(t, out, "javascript")

	out, err = world.execute(t, "get", "map", "m2")
	require.NoError(t, err)
	assert.Contains(t, out, "image_url: https://maps.example.com/m2.png\n")
}

func TestGetCommandNotFound(t *testing.T) {
	world := newTestWorld(t)

	_, err := world.execute(t, "get", "location", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_found")
}

func TestCreateUpdateDeleteCommands(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "create", "object", "--set", "name=Lantern", "--set", "weight=2", "-o", "json")
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, float64(2), created["weight"])
	assert.Equal(t, "world-1", created["world"])

	out, err = world.execute(t, "update", "object", id, "--set", "description=Never goes out", "-o", "json")
	require.NoError(t, err)
	var updated map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "Lantern", updated["name"])
	assert.Equal(t, "Never goes out", updated["description"])

	out, err = world.execute(t, "delete", "object", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted object "+id)
	assert.Equal(t, 0, world.fake.Store().Len("object"))
}

func TestCreateCommandFromFile(t *testing.T) {
	world := newTestWorld(t)

	path := filepath.Join(t.TempDir(), "zone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Ashlands\nsupertype: wasteland\n"), 0o600))

	out, err := world.execute(t, "create", "zone", "--file", path, "--set", "name=Ash Plains")
	require.NoError(t, err)
	assert.Contains(t, out, "Ash Plains")
	assert.Contains(t, out, "supertype: wasteland")
}

func TestUpdateCommandRequiresChanges(t *testing.T) {
	world := newTestWorld(t)

	_, err := world.execute(t, "update", "location", "loc-1")
	require.Error(t, err)
	assert.Equal(t, 0, world.fake.Journal().Count())
}

func TestSearchCommand(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "search", "location", "silver")
	require.NoError(t, err)
	assert.Contains(t, out, "Silverkeep")
	assert.NotContains(t, out, "Ironhold")

	world.fake.Journal().Reset()
	out, err = world.execute(t, "search", "location", "s")
	require.NoError(t, err)
	assert.Contains(t, out, "No locations found.")
	assert.Equal(t, 0, world.fake.Journal().Count())
}

func TestCountsCommand(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "counts")
	require.NoError(t, err)
	assert.Contains(t, out, "Locations")
	assert.Regexp(t, `Total\s+3\n`, out)
}

func TestUnknownOutputFormat(t *testing.T) {
	world := newTestWorld(t)

	_, err := world.execute(t, "list", "location", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, 0, world.fake.Journal().Count())
}

func TestVersionCommand(t *testing.T) {
	world := newTestWorld(t)

	out, err := world.execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "worldctl dev")
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{
		"name=Aria",
		"level=3",
		"species_ids=[sp-1, sp-2]",
		"alive=true",
		"born=2024-01-01",
		"note=",
		"title=Lady: of the Lake",
	})
	require.NoError(t, err)

	assert.Equal(t, "Aria", got["name"])
	assert.Equal(t, 3, got["level"])
	assert.Equal(t, []any{"sp-1", "sp-2"}, got["species_ids"])
	assert.Equal(t, true, got["alive"])
	assert.Equal(t, "2024-01-01", got["born"])
	assert.Nil(t, got["note"])
	assert.Equal(t, "Lady: of the Lake", got["title"])

	_, err = parseAssignments([]string{"missing-equals"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=value"})
	assert.Error(t, err)
}

func TestSeedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
location:
  - id: loc-1
    name: Silverkeep
  - name: Ironhold
species:
  - name: Elf
`), 0o600))

	store := mockapi.NewStore()
	n, err := seedStore(store, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, store.Len("location"))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dragon:\n  - name: Smaug\n"), 0o600))
	_, err = seedStore(mockapi.NewStore(), bad)
	assert.Error(t, err)
}
