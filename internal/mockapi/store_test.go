package mockapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumandas0/worldkit/pkg/utils"
)

func TestStoreCreateAssignsIDAndTimestamps(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	created, err := store.Create("object", Record{"name": "Lantern"})
	require.NoError(t, err)

	assert.NotEmpty(t, created["id"])
	assert.Equal(t, fixed.Format(time.RFC3339Nano), created["created_at"])
	assert.Equal(t, fixed.Format(time.RFC3339Nano), created["updated_at"])
}

func TestStoreCreateDuplicateID(t *testing.T) {
	store := NewStore()

	_, err := store.Create("object", Record{"id": "x", "name": "Lantern"})
	require.NoError(t, err)

	_, err = store.Create("object", Record{"id": "x", "name": "Lantern"})
	assert.True(t, utils.IsAlreadyExists(err))
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	store.Seed("title", Record{"id": "t1", "name": "Warden"})

	got, err := store.Get("title", "t1")
	require.NoError(t, err)
	got["name"] = "changed"

	again, err := store.Get("title", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Warden", again["name"])
}

func TestStoreDeleteKeepsOrder(t *testing.T) {
	store := NewStore()
	store.Seed("event",
		Record{"id": "e1", "name": "Founding"},
		Record{"id": "e2", "name": "Siege"},
		Record{"id": "e3", "name": "Treaty"},
	)

	require.NoError(t, store.Delete("event", "e2"))

	records := store.List("event", nil)
	require.Len(t, records, 2)
	assert.Equal(t, "e1", records[0]["id"])
	assert.Equal(t, "e3", records[1]["id"])

	err := store.Delete("event", "e2")
	assert.True(t, utils.IsNotFound(err))
}

func TestStoreReplaceMissing(t *testing.T) {
	store := NewStore()

	_, err := store.Replace("law", "missing", Record{"name": "Edict"})
	assert.True(t, utils.IsNotFound(err))
}
