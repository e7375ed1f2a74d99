package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*DocumentStore, *RichCacheStore) {
	t.Helper()
	dir := t.TempDir()
	cache := NewRichCacheStore(filepath.Join(dir, "cache"))
	store := NewDocumentStore(filepath.Join(dir, "documents.json"), cache)
	t.Cleanup(func() { store.Close() })
	return store, cache
}

func collectionIDs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &records))
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestAddCreatesDocument(t *testing.T) {
	store, _ := newTestStore(t)

	doc, err := store.Add("Untitled", "")
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "Untitled", doc.Title)
	require.Equal(t, "", doc.PlainText)
	require.Nil(t, doc.RichBlob)
	require.Empty(t, doc.CachePath)
	require.False(t, doc.CreatedAt.IsZero())

	all := store.GetAll()
	require.Len(t, all, 1)
	require.Equal(t, doc.ID, all[0].ID)
}

func TestAddDefaultsEmptyTitle(t *testing.T) {
	store, _ := newTestStore(t)

	doc, err := store.Add("  ", "body")
	require.NoError(t, err)
	require.Equal(t, "Untitled", doc.Title)
}

func TestSaveAllLoadAllRoundTrip(t *testing.T) {
	store, cache := newTestStore(t)

	first, err := store.Add("First", "alpha")
	require.NoError(t, err)
	second, err := store.Add("Second", "beta")
	require.NoError(t, err)

	reopened := NewDocumentStore(store.Path(), cache)
	defer reopened.Close()

	docs, err := reopened.LoadAll()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.Equal(t, first.ID, docs[0].ID)
	require.Equal(t, "First", docs[0].Title)
	require.Equal(t, "alpha", docs[0].PlainText)
	require.WithinDuration(t, first.ModifiedAt, docs[0].ModifiedAt, time.Second)
	require.Equal(t, second.ID, docs[1].ID)
}

func TestFileOrderSurvivesUpdate(t *testing.T) {
	store, _ := newTestStore(t)

	a, err := store.Add("A", "")
	require.NoError(t, err)
	b, err := store.Add("B", "")
	require.NoError(t, err)
	c, err := store.Add("C", "")
	require.NoError(t, err)

	b.PlainText = "changed"
	b.ModifiedAt = time.Now()
	require.NoError(t, store.Update(b))

	require.Equal(t, []string{a.ID, b.ID, c.ID}, collectionIDs(t, store.Path()))
}

func TestLegacyMigration(t *testing.T) {
	store, _ := newTestStore(t)

	legacy := `[{"title":"Old note","content":"Old body","date":"2024-01-02T03:04:05Z"},{"title":"Older","content":""}]`
	require.NoError(t, os.WriteFile(store.Path(), []byte(legacy), 0644))

	docs, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.NotEmpty(t, docs[0].ID)
	require.Equal(t, "Old note", docs[0].Title)
	require.Equal(t, "Old body", docs[0].PlainText)
	require.Nil(t, docs[0].RichBlob)
	require.Empty(t, docs[0].CachePath)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), docs[0].CreatedAt.UTC())

	// Missing date gets fresh timestamps
	require.False(t, docs[1].CreatedAt.IsZero())

	// Migration re-saved the file in the current schema
	onDisk, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(onDisk), `"id"`)

	// A second load is idempotent: same IDs, no further rewrite
	again, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, again, 2)
	require.Equal(t, docs[0].ID, again[0].ID)
	require.Equal(t, docs[1].ID, again[1].ID)

	afterSecondLoad, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Equal(t, onDisk, afterSecondLoad)
}

func TestLoadAllDropsDuplicateIDs(t *testing.T) {
	store, _ := newTestStore(t)

	edited := `[
  {"id":"a1b2c3d4","title":"First","content":"one"},
  {"id":"a1b2c3d4","title":"Copy","content":"two"},
  {"id":"deadbeef","title":"Second","content":"three"}
]`
	require.NoError(t, os.WriteFile(store.Path(), []byte(edited), 0644))

	docs, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a1b2c3d4", docs[0].ID)
	require.Equal(t, "First", docs[0].Title, "the first record wins")
	require.Equal(t, "deadbeef", docs[1].ID)

	// The duplicate does not survive the next save
	require.NoError(t, store.Rename("deadbeef", "Renamed"))
	require.Equal(t, []string{"a1b2c3d4", "deadbeef"}, collectionIDs(t, store.Path()))
}

func TestUnparsableCollectionYieldsEmptyAndKeepsFile(t *testing.T) {
	store, _ := newTestStore(t)

	garbage := []byte("definitely { not json")
	require.NoError(t, os.WriteFile(store.Path(), garbage, 0644))

	docs, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, docs)

	// The original file is left intact for manual recovery
	onDisk, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Equal(t, garbage, onDisk)
}

func TestLoadAllMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	docs, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	existing, err := store.Add("Keep", "body")
	require.NoError(t, err)

	ghost := existing.Clone()
	ghost.ID = "ffffffff"
	ghost.Title = "Ghost"
	require.NoError(t, store.Update(ghost))

	all := store.GetAll()
	require.Len(t, all, 1)
	require.Equal(t, "Keep", all[0].Title)
}

func TestDeleteRemovesRecordAndCacheFile(t *testing.T) {
	store, cache := newTestStore(t)

	doc, err := store.Add("Doomed", "body")
	require.NoError(t, err)

	_, err = cache.Save(doc.ID, []byte("blob"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(doc.ID))
	require.Empty(t, store.GetAll())

	blob, err := cache.Load("", doc.ID)
	require.NoError(t, err)
	require.Nil(t, blob, "cache file must not be orphaned")
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	doc, err := store.Add("Survivor", "")
	require.NoError(t, err)

	require.NoError(t, store.Delete("ffffffff"))
	all := store.GetAll()
	require.Len(t, all, 1)
	require.Equal(t, doc.ID, all[0].ID)
}

func TestRename(t *testing.T) {
	store, _ := newTestStore(t)

	doc, err := store.Add("Before", "")
	require.NoError(t, err)
	before := doc.ModifiedAt

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Rename(doc.ID, "After"))

	got, err := store.Get(doc.ID)
	require.NoError(t, err)
	require.Equal(t, "After", got.Title)
	require.True(t, got.ModifiedAt.After(before))

	// Unknown ID is a silent no-op
	require.NoError(t, store.Rename("ffffffff", "nope"))
}

func TestGetUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("ffffffff")
	require.Error(t, err)
}

func TestGetAllSortsByModifiedDesc(t *testing.T) {
	store, _ := newTestStore(t)

	older, err := store.Add("Older", "")
	require.NoError(t, err)
	newer, err := store.Add("Newer", "")
	require.NoError(t, err)

	older.ModifiedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(older))

	all := store.GetAll()
	require.Len(t, all, 2)
	require.Equal(t, newer.ID, all[0].ID)
	require.Equal(t, older.ID, all[1].ID)
}

func TestSearch(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Add("Groceries", "milk and eggs")
	require.NoError(t, err)
	_, err = store.Add("Meeting notes", "quarterly plan")
	require.NoError(t, err)

	require.Len(t, store.Search("MILK"), 1)
	require.Len(t, store.Search("meeting"), 1)
	require.Len(t, store.Search("nothing"), 0)
	require.Len(t, store.Search(""), 2)
}

func TestRichBlobRoundTripsThroughCollectionFile(t *testing.T) {
	store, cache := newTestStore(t)

	doc, err := store.Add("Rich", "hello")
	require.NoError(t, err)
	doc.RichBlob = []byte{0x01, 0x02, 0xff}
	require.NoError(t, store.Update(doc))

	reopened := NewDocumentStore(store.Path(), cache)
	defer reopened.Close()
	docs, err := reopened.LoadAll()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, []byte{0x01, 0x02, 0xff}, docs[0].RichBlob)
}
