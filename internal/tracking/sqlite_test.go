package tracking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/model"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	record, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, record.Status)

	loaded, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, model.StatusNew, loaded.Status)
	assert.Empty(t, loaded.History)
	assert.Equal(t, "0001", loaded.Transfer.ContraFirm)
	require.Len(t, loaded.Transfer.Securities, 1)
	assert.Equal(t, "037833100", loaded.Transfer.Securities[0].CUSIP)
}

func TestSQLiteStoreGetNotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSQLiteStoreUpdateStatus(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	record, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)

	updated, err := store.UpdateStatus(ctx, record.ID, model.StatusSubmitted, "sent to contra", "ops")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, updated.Status)
	require.Len(t, updated.History, 1)
	assert.Equal(t, model.StatusNew, updated.History[0].From)
	assert.Equal(t, model.StatusSubmitted, updated.History[0].To)
	assert.Equal(t, "sent to contra", updated.History[0].Reason)
	assert.WithinDuration(t, updated.UpdatedAt, updated.History[0].At, time.Second)

	updated, err = store.UpdateStatus(ctx, record.ID, model.StatusRejected, "bad cusip", "contra")
	require.NoError(t, err)
	assert.Len(t, updated.History, 2)
	assert.Equal(t, model.StatusRejected, updated.Status)
}

func TestSQLiteStoreUpdateStatusNotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.UpdateStatus(context.Background(), "missing", model.StatusSubmitted, "", "ops")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSQLiteStoreDeleteIdempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	record, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, record.ID, model.StatusSubmitted, "sent", "ops")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, record.ID))
	_, err = store.Get(ctx, record.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, store.Delete(ctx, record.ID))
	require.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestSQLiteStoreList(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	_, err = store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, first.ID, model.StatusSubmitted, "sent", "ops")
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := make(map[string]model.TrackedRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	assert.Len(t, byID[first.ID].History, 1)
}

func TestSQLiteStoreEmitsEvents(t *testing.T) {
	store := createTestStore(t)
	sub := &capturingSubscriber{}
	store.Subscribe(sub)
	audit := &capturingAudit{}
	store.SetAuditSink(audit)
	ctx := context.Background()

	record, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, record.ID, model.StatusPendingReview, "needs review", "ops")
	require.NoError(t, err)

	require.Len(t, sub.changes, 1)
	assert.Equal(t, model.StatusPendingReview, sub.changes[0].To)
	assert.Equal(t, "0001", sub.changes[0].ContraFirm)
	assert.Equal(t, []string{"create", "status_change"}, audit.actions)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	record, err := store.Create(ctx, sampleTransfer(), "ops")
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, record.ID, model.StatusSubmitted, "sent", "ops")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	loaded, err := reopened.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, loaded.Status)
	assert.Len(t, loaded.History, 1)
}

func TestSQLiteStoreRetriesTransientLock(t *testing.T) {
	store := createTestStore(t)
	calls := 0

	err := store.retryBusy(context.Background(), func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSQLiteStoreDoesNotRetryOtherErrors(t *testing.T) {
	store := createTestStore(t)
	calls := 0
	boom := errors.New("schema broken")

	err := store.retryBusy(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsBusyClassification(t *testing.T) {
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.True(t, isBusy(fmt.Errorf("commit: %w", sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(errors.New("plain failure")))
	assert.False(t, isBusy(nil))
}
