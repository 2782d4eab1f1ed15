package streak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/storage"
)

type recordEnvelope struct {
	Version int                 `json:"version"`
	Record  models.StreakRecord `json:"record"`
}

type ledgerEnvelope struct {
	Version int                    `json:"version"`
	Ledger  models.MilestoneLedger `json:"ledger"`
}

// RecordStore serializes the streak record and milestone ledger onto two adapter keys.
// Each key is written atomically by the adapter; the pair is not.
type RecordStore struct {
	adapter storage.Adapter
}

func NewRecordStore(adapter storage.Adapter) *RecordStore {
	return &RecordStore{adapter: adapter}
}

// Load returns the stored record, or ErrNotFound.
func (s *RecordStore) Load(ctx context.Context) (models.StreakRecord, error) {
	data, err := s.adapter.Get(ctx, constants.RecordKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.StreakRecord{}, ErrNotFound
		}
		return models.StreakRecord{}, &PersistenceError{Op: "load", Key: constants.RecordKey, Err: err}
	}

	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.StreakRecord{}, &PersistenceError{Op: "decode", Key: constants.RecordKey, Err: err}
	}
	if env.Version > constants.RecordFormatVersion {
		return models.StreakRecord{}, &PersistenceError{
			Op:  "decode",
			Key: constants.RecordKey,
			Err: fmt.Errorf("format version %d is newer than supported version %d", env.Version, constants.RecordFormatVersion),
		}
	}
	return normalizeRecord(env.Record), nil
}

// Save writes the record. A failed write is returned and the previous value is kept by the adapter.
func (s *RecordStore) Save(ctx context.Context, record models.StreakRecord) error {
	data, err := json.Marshal(recordEnvelope{Version: constants.RecordFormatVersion, Record: record})
	if err != nil {
		return &PersistenceError{Op: "encode", Key: constants.RecordKey, Err: err}
	}
	if err := s.adapter.Set(ctx, constants.RecordKey, data); err != nil {
		return &PersistenceError{Op: "save", Key: constants.RecordKey, Err: err}
	}
	return nil
}

// Exists reports whether a record has been stored.
func (s *RecordStore) Exists(ctx context.Context) (bool, error) {
	_, err := s.adapter.Get(ctx, constants.RecordKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, &PersistenceError{Op: "load", Key: constants.RecordKey, Err: err}
}

// LoadLedger returns the stored ledger. A missing ledger is empty.
func (s *RecordStore) LoadLedger(ctx context.Context) (models.MilestoneLedger, error) {
	data, err := s.adapter.Get(ctx, constants.LedgerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.MilestoneLedger{}, nil
		}
		return models.MilestoneLedger{}, &PersistenceError{Op: "load", Key: constants.LedgerKey, Err: err}
	}

	var env ledgerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.MilestoneLedger{}, &PersistenceError{Op: "decode", Key: constants.LedgerKey, Err: err}
	}
	if env.Version > constants.RecordFormatVersion {
		return models.MilestoneLedger{}, &PersistenceError{
			Op:  "decode",
			Key: constants.LedgerKey,
			Err: fmt.Errorf("format version %d is newer than supported version %d", env.Version, constants.RecordFormatVersion),
		}
	}
	return normalizeLedger(env.Ledger), nil
}

// SaveLedger writes the ledger.
func (s *RecordStore) SaveLedger(ctx context.Context, ledger models.MilestoneLedger) error {
	if ledger.Milestones == nil {
		ledger.Milestones = []models.Milestone{}
	}
	data, err := json.Marshal(ledgerEnvelope{Version: constants.RecordFormatVersion, Ledger: ledger})
	if err != nil {
		return &PersistenceError{Op: "encode", Key: constants.LedgerKey, Err: err}
	}
	if err := s.adapter.Set(ctx, constants.LedgerKey, data); err != nil {
		return &PersistenceError{Op: "save", Key: constants.LedgerKey, Err: err}
	}
	return nil
}

// Clear removes the record, then the ledger. Clearing an empty store succeeds.
func (s *RecordStore) Clear(ctx context.Context) error {
	for _, key := range []string{constants.RecordKey, constants.LedgerKey} {
		if err := s.adapter.Remove(ctx, key); err != nil {
			return &PersistenceError{Op: "remove", Key: key, Err: err}
		}
	}
	return nil
}

// normalizeRecord restores the record invariants on data written by older or foreign writers.
func normalizeRecord(r models.StreakRecord) models.StreakRecord {
	r.CurrentStreak = max(r.CurrentStreak, 0)
	r.LongestStreak = max(r.LongestStreak, r.CurrentStreak)
	r.TotalRelapses = max(r.TotalRelapses, 0)
	if r.StartDate.IsZero() {
		r.StartDate = r.QuitDate
	}
	return r
}

func normalizeLedger(l models.MilestoneLedger) models.MilestoneLedger {
	var out models.MilestoneLedger
	for _, m := range l.Milestones {
		if m.Value <= 0 {
			continue
		}
		if m.Type == "" {
			m.Type = constants.MilestoneTypeStreak
		}
		out.Add(m)
	}
	return out
}
