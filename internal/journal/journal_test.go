package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/fjod/go_cart/smart-trolley/internal/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestJournal(t *testing.T) (*journal.Journal, string) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func TestRecord_ThenList(t *testing.T) {
	j, _ := setupTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, domain.Activity{
		TrolleyID: "t-1", Kind: domain.ActivityScan, Barcode: "123",
		Outcome: domain.StatusOK, Message: "Added: Milk", At: base,
	}))
	require.NoError(t, j.Record(ctx, domain.Activity{
		TrolleyID: "t-1", Kind: domain.ActivityRemove, Barcode: "123",
		Outcome: domain.StatusError, Message: "weight mismatch", Code: "WEIGHT_MISMATCH", At: base.Add(time.Minute),
	}))
	require.NoError(t, j.Record(ctx, domain.Activity{
		TrolleyID: "t-2", Kind: domain.ActivityScan, Outcome: domain.StatusOK, At: base,
	}))

	activities, err := j.List(ctx, "t-1", 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)

	newest := activities[0]
	assert.NotZero(t, newest.ID)
	assert.Equal(t, domain.ActivityRemove, newest.Kind)
	assert.Equal(t, domain.StatusError, newest.Outcome)
	assert.Equal(t, "weight mismatch", newest.Message)
	assert.Equal(t, "WEIGHT_MISMATCH", newest.Code)
	assert.True(t, newest.At.Equal(base.Add(time.Minute)))
	assert.Equal(t, domain.ActivityScan, activities[1].Kind)
}

func TestList_Limit(t *testing.T) {
	j, _ := setupTestJournal(t)
	ctx := context.Background()
	for range 5 {
		require.NoError(t, j.Record(ctx, domain.Activity{TrolleyID: "t-1", Kind: domain.ActivityScan, Outcome: domain.StatusOK}))
	}

	activities, err := j.List(ctx, "t-1", 3)
	require.NoError(t, err)
	assert.Len(t, activities, 3)
}

func TestList_Empty(t *testing.T) {
	j, _ := setupTestJournal(t)

	activities, err := j.List(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestPublish_RecordsAlert(t *testing.T) {
	j, _ := setupTestJournal(t)
	ctx := context.Background()

	err := j.Publish(ctx, domain.Alert{Message: "Unscanned item detected", TrolleyID: "t-1", RaisedAt: time.Now()})
	require.NoError(t, err)

	activities, err := j.List(ctx, "t-1", 1)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActivityAlert, activities[0].Kind)
	assert.Equal(t, domain.StatusWarning, activities[0].Outcome)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), domain.Activity{TrolleyID: "t-1", Kind: domain.ActivityScan, Outcome: domain.StatusOK}))
	require.NoError(t, j.Close())

	j, err = journal.Open(path)
	require.NoError(t, err, "migrations must be idempotent")
	defer j.Close()

	activities, err := j.List(context.Background(), "t-1", 10)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}

func TestRecord_ClosedJournal(t *testing.T) {
	j, _ := setupTestJournal(t)
	require.NoError(t, j.Close())

	err := j.Record(context.Background(), domain.Activity{TrolleyID: "t-1", Kind: domain.ActivityScan})
	assert.ErrorContains(t, err, "failed to insert activity")
}
