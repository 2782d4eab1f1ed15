package streak

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/julianstephens/abstain/internal/storage"
)

var errDiskFull = errors.New("disk full")

// ctx is the context test calls run under
var ctx = context.Background()

// faultyAdapter wraps a MemoryStore and fails selected operations on demand
type faultyAdapter struct {
	*storage.MemoryStore

	mu      sync.Mutex
	failGet map[string]error
	failSet map[string]error
	// lostAck commits the write and then reports the error, like a reply lost in transit
	lostAck  map[string]error
	setDelay map[string]time.Duration
	sets     map[string]int
}

func newFaultyAdapter() *faultyAdapter {
	return &faultyAdapter{
		MemoryStore: storage.NewMemoryStore(),
		failGet:     make(map[string]error),
		failSet:     make(map[string]error),
		lostAck:     make(map[string]error),
		setDelay:    make(map[string]time.Duration),
		sets:        make(map[string]int),
	}
}

func (a *faultyAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	err := a.failGet[key]
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return a.MemoryStore.Get(ctx, key)
}

func (a *faultyAdapter) Set(ctx context.Context, key string, value []byte) error {
	a.mu.Lock()
	err := a.failSet[key]
	ackErr := a.lostAck[key]
	delay := a.setDelay[key]
	a.mu.Unlock()
	if err != nil {
		return err
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := a.MemoryStore.Set(ctx, key, value); err != nil {
		return err
	}

	a.mu.Lock()
	a.sets[key]++
	a.mu.Unlock()
	return ackErr
}

func (a *faultyAdapter) loseAckOn(key string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.lostAck, key)
		return
	}
	a.lostAck[key] = err
}

func (a *faultyAdapter) delaySetOn(key string, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setDelay[key] = d
}

func (a *faultyAdapter) setCount(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sets[key]
}

func (a *faultyAdapter) failSetOn(key string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failSet, key)
		return
	}
	a.failSet[key] = err
}

func (a *faultyAdapter) failGetOn(key string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failGet, key)
		return
	}
	a.failGet[key] = err
}

// baseTime is a fixed instant all tests measure from
var baseTime = time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)

func daysAfter(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}
