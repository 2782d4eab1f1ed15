package streak

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/storage"
)

func TestRecordStoreLoadMissing(t *testing.T) {
	store := NewRecordStore(storage.NewMemoryStore())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecordStoreRoundTrip(t *testing.T) {
	store := NewRecordStore(storage.NewMemoryStore())
	want := models.StreakRecord{
		ID:              "7d0c2f8e",
		QuitDate:        daysAfter(baseTime, 2),
		StartDate:       baseTime,
		CurrentStreak:   4,
		LongestStreak:   9,
		TotalRelapses:   1,
		GracePeriodUsed: true,
		LastCheckDate:   daysAfter(baseTime, 6),
	}

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.QuitDate.Equal(got.QuitDate))
	assert.True(t, want.StartDate.Equal(got.StartDate))
	assert.True(t, want.LastCheckDate.Equal(got.LastCheckDate))
	assert.Equal(t, want.CurrentStreak, got.CurrentStreak)
	assert.Equal(t, want.LongestStreak, got.LongestStreak)
	assert.Equal(t, want.TotalRelapses, got.TotalRelapses)
	assert.Equal(t, want.GracePeriodUsed, got.GracePeriodUsed)

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRecordStoreNormalizesOnLoad(t *testing.T) {
	mem := storage.NewMemoryStore()
	raw := `{"version":1,"record":{"quit_date":"2026-03-01T08:30:00Z","current_streak":-4,"longest_streak":2,"total_relapses":-1}}`
	require.NoError(t, mem.Set(ctx, constants.RecordKey, []byte(raw)))

	got, err := NewRecordStore(mem).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 2, got.LongestStreak)
	assert.Equal(t, 0, got.TotalRelapses)
	assert.True(t, got.StartDate.Equal(baseTime), "start date backfilled from quit date")

	raw = `{"version":1,"record":{"quit_date":"2026-03-01T08:30:00Z","current_streak":6,"longest_streak":2}}`
	require.NoError(t, mem.Set(ctx, constants.RecordKey, []byte(raw)))
	got, err = NewRecordStore(mem).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, got.LongestStreak)
}

func TestRecordStoreDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
		load func(*RecordStore) error
	}{
		{
			name: "corrupt record",
			key:  constants.RecordKey,
			raw:  "{nope",
			load: func(s *RecordStore) error { _, err := s.Load(ctx); return err },
		},
		{
			name: "future record version",
			key:  constants.RecordKey,
			raw:  `{"version":99,"record":{}}`,
			load: func(s *RecordStore) error { _, err := s.Load(ctx); return err },
		},
		{
			name: "corrupt ledger",
			key:  constants.LedgerKey,
			raw:  "[",
			load: func(s *RecordStore) error { _, err := s.LoadLedger(ctx); return err },
		},
		{
			name: "future ledger version",
			key:  constants.LedgerKey,
			raw:  `{"version":2,"ledger":{"milestones":[]}}`,
			load: func(s *RecordStore) error { _, err := s.LoadLedger(ctx); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemoryStore()
			require.NoError(t, mem.Set(ctx, tt.key, []byte(tt.raw)))

			err := tt.load(NewRecordStore(mem))
			var perr *PersistenceError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "decode", perr.Op)
			assert.Equal(t, tt.key, perr.Key)
		})
	}
}

func TestRecordStoreLedger(t *testing.T) {
	store := NewRecordStore(storage.NewMemoryStore())

	empty, err := store.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	var ledger models.MilestoneLedger
	ledger.Add(models.Milestone{Type: constants.MilestoneTypeStreak, Value: 3, AchievedAt: baseTime})
	ledger.Add(models.Milestone{Type: constants.MilestoneTypeStreak, Value: 1, AchievedAt: baseTime})
	require.NoError(t, store.SaveLedger(ctx, ledger))

	got, err := store.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got.Values())
}

func TestRecordStoreNormalizesLedger(t *testing.T) {
	mem := storage.NewMemoryStore()
	raw := `{"version":1,"ledger":{"milestones":[{"value":7},{"type":"streak","value":3},{"value":7},{"value":0},{"value":-1}]}}`
	require.NoError(t, mem.Set(ctx, constants.LedgerKey, []byte(raw)))

	got, err := NewRecordStore(mem).LoadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, got.Values())
	for _, m := range got.Milestones {
		assert.Equal(t, constants.MilestoneTypeStreak, m.Type)
	}
}

func TestRecordStoreFailuresSurface(t *testing.T) {
	adapter := newFaultyAdapter()
	store := NewRecordStore(adapter)

	adapter.failSetOn(constants.RecordKey, errDiskFull)
	err := store.Save(ctx, NewRecord("id", baseTime))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)
	assert.ErrorIs(t, err, errDiskFull)

	adapter.failGetOn(constants.LedgerKey, errDiskFull)
	_, err = store.LoadLedger(ctx)
	assert.ErrorIs(t, err, errDiskFull)

	adapter.failGetOn(constants.RecordKey, errDiskFull)
	_, err = store.Exists(ctx)
	assert.ErrorIs(t, err, errDiskFull)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRecordStoreClearIsIdempotent(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := NewRecordStore(mem)

	require.NoError(t, store.Save(ctx, NewRecord("id", baseTime)))
	require.NoError(t, store.SaveLedger(ctx, models.MilestoneLedger{}))

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, mem.Keys())
	require.NoError(t, store.Clear(ctx))
}
