package streak

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/logger"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/storage"
)

// Engine is the single entry point for reading and changing streak state.
// Every operation loads, recomputes at the given instant and persists only what
// changed. Calls are serialized so read-modify-write cycles never interleave.
type Engine struct {
	mu         sync.Mutex
	store      *RecordStore
	thresholds []int
	newID      func() string
	// undelivered holds milestones whose ledger write failed. A failed write may
	// still have committed, so they are returned by the next successful check.
	undelivered []models.Milestone
}

type Option func(*Engine)

// WithThresholds replaces the default milestone thresholds.
func WithThresholds(thresholds []int) Option {
	return func(e *Engine) {
		e.thresholds = slices.Clone(thresholds)
	}
}

// WithIDGenerator overrides how record IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New builds an engine over adapter. It fails if the configured thresholds are invalid.
func New(adapter storage.Adapter, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:      NewRecordStore(adapter),
		thresholds: DefaultThresholds(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := ValidateThresholds(e.thresholds); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	return e, nil
}

// Thresholds returns the milestone thresholds the engine awards.
func (e *Engine) Thresholds() []int {
	return slices.Clone(e.thresholds)
}

// Initialize creates the record anchored at quitDate and an empty ledger.
// Existing history is never overwritten.
func (e *Engine) Initialize(ctx context.Context, quitDate time.Time) (models.StreakRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quitDate.IsZero() {
		return models.StreakRecord{}, ErrInvalidQuitDate
	}

	exists, err := e.store.Exists(ctx)
	if err != nil {
		return models.StreakRecord{}, err
	}
	if exists {
		return models.StreakRecord{}, ErrAlreadyInitialized
	}

	record := NewRecord(e.newID(), quitDate)
	// The ledger is written first so a stored record always has a ledger beside it
	if err := e.store.SaveLedger(ctx, models.MilestoneLedger{}); err != nil {
		return models.StreakRecord{}, err
	}
	if err := e.store.Save(ctx, record); err != nil {
		return models.StreakRecord{}, err
	}
	e.undelivered = nil

	logger.Debug("streak initialized", "id", record.ID, "quit_date", quitDate)
	return record, nil
}

// GetStatus returns the record recomputed at now. The ledger is never touched.
func (e *Engine) GetStatus(ctx context.Context, now time.Time) (models.StreakRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.store.Load(ctx)
	if err != nil {
		return models.StreakRecord{}, err
	}

	updated := Recompute(record, now)
	if err := e.saveIfChanged(ctx, record, updated); err != nil {
		return models.StreakRecord{}, err
	}
	return updated, nil
}

// CheckMilestones returns the milestones newly reached at now in ascending order.
// They are written to the ledger before being returned, so each is delivered once.
func (e *Engine) CheckMilestones(ctx context.Context, now time.Time) ([]models.Milestone, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := e.store.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}

	updated := Recompute(record, now)
	achieved := DetectNew(updated.CurrentStreak, ledger, e.thresholds, now)
	if len(achieved) > 0 {
		for _, m := range achieved {
			ledger.Add(m)
		}
		if err := e.store.SaveLedger(ctx, ledger); err != nil {
			e.remember(achieved)
			return nil, err
		}
		logger.Debug("milestones achieved", "values", milestoneValues(achieved), "current_streak", updated.CurrentStreak)
	}

	if err := e.saveIfChanged(ctx, record, updated); err != nil {
		e.remember(achieved)
		return nil, err
	}
	return e.deliver(achieved, ledger), nil
}

// remember keeps milestones that may not have reached the caller.
func (e *Engine) remember(ms []models.Milestone) {
	var ledger models.MilestoneLedger
	for _, m := range e.undelivered {
		ledger.Add(m)
	}
	for _, m := range ms {
		ledger.Add(m)
	}
	e.undelivered = ledger.Milestones
}

// deliver merges achieved with earlier undelivered milestones that are now in
// the stored ledger and clears the undelivered set.
func (e *Engine) deliver(achieved []models.Milestone, ledger models.MilestoneLedger) []models.Milestone {
	if len(e.undelivered) == 0 {
		return achieved
	}
	var out models.MilestoneLedger
	for _, m := range e.undelivered {
		if ledger.Has(m.Value) {
			out.Add(m)
		}
	}
	for _, m := range achieved {
		out.Add(m)
	}
	e.undelivered = nil
	if len(out.Milestones) > len(achieved) {
		logger.Debug("redelivering milestones", "values", out.Values())
	}
	return out.Milestones
}

// Relapse performs a hard restart at now. The streak is recomputed first so the
// longest streak captures the attempt that just ended.
func (e *Engine) Relapse(ctx context.Context, now time.Time) (models.StreakRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.store.Load(ctx)
	if err != nil {
		return models.StreakRecord{}, err
	}

	updated := Relapse(Recompute(record, now), now)
	if err := e.store.Save(ctx, updated); err != nil {
		return models.StreakRecord{}, err
	}

	logger.Debug("relapse recorded", "total_relapses", updated.TotalRelapses, "longest_streak", updated.LongestStreak)
	return updated, nil
}

// UseGracePeriod consumes the one-time grace period. On ErrGracePeriodAlreadyUsed
// nothing is written.
func (e *Engine) UseGracePeriod(ctx context.Context, now time.Time) (models.StreakRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.store.Load(ctx)
	if err != nil {
		return models.StreakRecord{}, err
	}

	updated, err := UseGracePeriod(Recompute(record, now), now)
	if err != nil {
		return models.StreakRecord{}, err
	}
	if err := e.store.Save(ctx, updated); err != nil {
		return models.StreakRecord{}, err
	}

	logger.Debug("grace period used", "current_streak", updated.CurrentStreak)
	return updated, nil
}

// Recover dispatches a recovery dialog choice.
func (e *Engine) Recover(ctx context.Context, action RecoveryAction, now time.Time) (models.StreakRecord, error) {
	switch action {
	case constants.RecoveryHardRestart:
		return e.Relapse(ctx, now)
	case constants.RecoveryGracePeriod:
		return e.UseGracePeriod(ctx, now)
	default:
		return models.StreakRecord{}, fmt.Errorf("unknown recovery action %q", action)
	}
}

// Ledger returns every milestone awarded so far.
func (e *Engine) Ledger(ctx context.Context) (models.MilestoneLedger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.store.Exists(ctx)
	if err != nil {
		return models.MilestoneLedger{}, err
	}
	if !exists {
		return models.MilestoneLedger{}, ErrNotFound
	}
	return e.store.LoadLedger(ctx)
}

// Reset wipes the record and the ledger. Resetting an empty store succeeds.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Clear(ctx); err != nil {
		return err
	}
	e.undelivered = nil
	logger.Debug("streak data reset")
	return nil
}

// saveIfChanged persists updated when a derived counter moved. LastCheckDate alone
// does not warrant a write.
func (e *Engine) saveIfChanged(ctx context.Context, before, after models.StreakRecord) error {
	if before.CurrentStreak == after.CurrentStreak && before.LongestStreak == after.LongestStreak {
		return nil
	}
	return e.store.Save(ctx, after)
}

func milestoneValues(ms []models.Milestone) []int {
	values := make([]int, len(ms))
	for i, m := range ms {
		values[i] = m.Value
	}
	return values
}
