package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// testAdapterContract exercises the Get/Set/Remove contract every adapter shares.
func testAdapterContract(t *testing.T, a Adapter, key string) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		if _, err := a.Get(context.Background(), key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		want := []byte(`{"current_streak":3}`)
		if err := a.Set(context.Background(), key, want); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		got, err := a.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Get() = %q, want %q", got, want)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		want := []byte(`{"current_streak":4}`)
		if err := a.Set(context.Background(), key, want); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		got, err := a.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Get() = %q, want %q", got, want)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		if err := a.Remove(context.Background(), key); err != nil {
			t.Fatalf("Remove() failed: %v", err)
		}
		if _, err := a.Get(context.Background(), key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
		}
		if err := a.Remove(context.Background(), key); err != nil {
			t.Errorf("second Remove() failed: %v", err)
		}
	})
}
