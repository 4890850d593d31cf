package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/models"
	"medibot/pkg/logger"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestOpenMissingFileYieldsEmptyStore(t *testing.T) {
	s, _ := tempStore(t)
	assert.Empty(t, s.SnapshotAll())
}

func TestOpenUnparsableFileStartsEmptyAndMovesFileAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, s.SnapshotAll())

	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)
}

func TestUpsertGetRoundTrip(t *testing.T) {
	s, path := tempStore(t)

	rec := &models.UserRecord{
		ID:     "42",
		ChatID: 42,
		Name:   "أحمد",
		Step:   models.StepMenu,
		Medicines: []models.MedicineRecord{
			{ID: "m1", Name: "بنادول", Dosage: "حبة واحدة", Schedule: models.Schedule{Times: []string{"08:00"}}},
		},
	}
	require.NoError(t, s.Upsert(rec))

	got, ok := s.Get("42")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	// Mutating the returned copy must not leak into the store.
	got.Name = "غيره"
	again, _ := s.Get("42")
	assert.Equal(t, "أحمد", again.Name)

	// Reopening reads the persisted document back.
	reopened, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	fromDisk, ok := reopened.Get("42")
	require.True(t, ok)
	assert.Equal(t, "بنادول", fromDisk.Medicines[0].Name)
}

func TestGetMissingUser(t *testing.T) {
	s, _ := tempStore(t)
	_, ok := s.Get("nobody")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.Upsert(&models.UserRecord{ID: "1"}))
	require.NoError(t, s.Remove("1"))
	_, ok := s.Get("1")
	assert.False(t, ok)

	// Removing an absent record is not an error.
	assert.NoError(t, s.Remove("1"))
}

func TestConcurrentUpsertsKeepDocumentValid(t *testing.T) {
	s, path := tempStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				rec := &models.UserRecord{
					ID:   fmt.Sprintf("user-%d", n),
					Name: fmt.Sprintf("round-%d", j),
					Medicines: []models.MedicineRecord{
						{ID: "m", Name: "دواء", Schedule: models.Schedule{Times: []string{"08:00", "20:00"}}},
					},
				}
				assert.NoError(t, s.Upsert(rec))
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]models.UserRecord
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 8)
}
