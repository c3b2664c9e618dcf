package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_FirstSeenThenDuplicate(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	dup, err := store.IsDuplicateAndRecord(ctx, "k1")
	if err != nil {
		t.Fatalf("IsDuplicateAndRecord() error = %v", err)
	}
	if dup {
		t.Error("first call = duplicate, want not-duplicate")
	}

	dup, err = store.IsDuplicateAndRecord(ctx, "k1")
	if err != nil {
		t.Fatalf("IsDuplicateAndRecord() error = %v", err)
	}
	if !dup {
		t.Error("second call = not-duplicate, want duplicate")
	}
}

func TestMemoryStore_DistinctKeys(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	if dup, _ := store.IsDuplicateAndRecord(ctx, "k1"); dup {
		t.Error("k1 reported duplicate on first sight")
	}
	if dup, _ := store.IsDuplicateAndRecord(ctx, "k2"); dup {
		t.Error("k2 reported duplicate; keys must be independent")
	}
}

func TestMemoryStore_ExpiredKeyIsFreshAgain(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if dup, _ := store.IsDuplicateAndRecord(ctx, "k1"); dup {
		t.Fatal("first call reported duplicate")
	}

	// Inside the TTL window.
	now = now.Add(30 * time.Minute)
	if dup, _ := store.IsDuplicateAndRecord(ctx, "k1"); !dup {
		t.Error("call within TTL = not-duplicate, want duplicate")
	}

	// A duplicate lookup must not have extended the TTL.
	now = now.Add(31 * time.Minute)
	if dup, _ := store.IsDuplicateAndRecord(ctx, "k1"); dup {
		t.Error("call after TTL = duplicate, want fresh record")
	}
}

func TestMemoryStore_OpportunisticCleanup(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < cleanupThreshold+1; i++ {
		store.IsDuplicateAndRecord(ctx, fmt.Sprintf("k%d", i))
	}

	// Expire everything, then trigger the sweep with one more insert.
	now = now.Add(2 * time.Hour)
	store.IsDuplicateAndRecord(ctx, "trigger")

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()

	if size > 1 {
		t.Errorf("entries after sweep = %d, want expired entries removed", size)
	}
}

func TestMemoryStore_ConcurrentSameKey(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	const workers = 32
	firstSeen := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := store.IsDuplicateAndRecord(ctx, "same-key")
			if err != nil {
				t.Errorf("IsDuplicateAndRecord() error = %v", err)
				return
			}
			if !dup {
				firstSeen <- true
			}
		}()
	}
	wg.Wait()
	close(firstSeen)

	if n := len(firstSeen); n != 1 {
		t.Errorf("%d callers saw first-seen, want exactly 1", n)
	}
}
