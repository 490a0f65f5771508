package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/tokencache/token"
)

func testID(t *testing.T, plaintext string) token.ID {
	t.Helper()
	p := token.NewMemoryProvider()
	p.Rotate("v1", []byte("store-test-key-material"))
	id, _, err := token.NewTokenizer(p).Tokenize(context.Background(), plaintext, nil)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	return id
}

func TestMemoryStore_UpsertThenFind(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	id := testID(t, "user:1")

	before := time.Now().UTC()
	ent, err := s.Upsert(ctx, id, map[string]any{"n": 1}, 30*time.Second)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if ent.Created.IsZero() || ent.Updated.IsZero() {
		t.Error("Upsert did not set meta timestamps")
	}
	wantExpiry := before.Add(30 * time.Second)
	if d := ent.Expires.Sub(wantExpiry); d < -time.Second || d > time.Second {
		t.Errorf("expires = %v, want ~%v", ent.Expires, wantExpiry)
	}

	got, err := s.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Value.(map[string]any)["n"] != 1 {
		t.Errorf("Find returned value %v", got.Value)
	}
}

func TestMemoryStore_UpsertMergeSemantics(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	id := testID(t, "user:1")

	first, err := s.Upsert(ctx, id, "v1", time.Minute)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	second, err := s.Upsert(ctx, id, "v2", time.Minute)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	// Update overwrites value/expires/updated but preserves created.
	if !second.Created.Equal(first.Created) {
		t.Errorf("created changed on update: %v -> %v", first.Created, second.Created)
	}
	if !second.Updated.After(first.Updated) {
		t.Errorf("updated not advanced: %v -> %v", first.Updated, second.Updated)
	}
	if second.Value != "v2" {
		t.Errorf("value = %v, want v2", second.Value)
	}
	if s.Len() != 1 {
		t.Errorf("store holds %d entries for one id, want 1", s.Len())
	}
}

func TestMemoryStore_FindMissing(t *testing.T) {
	s := NewMemoryStore(0)
	id := testID(t, "user:absent")

	_, err := s.Find(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find on empty store = %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("error is not a *NotFoundError")
	}
	if nf.Key != id.CacheKey() {
		t.Errorf("NotFoundError.Key = %q, want %q", nf.Key, id.CacheKey())
	}
}

func TestMemoryStore_ExpiredEntryRejectedButPresent(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()
	id := testID(t, "user:1")

	if _, err := s.Upsert(ctx, id, "v", 0); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Logically expired, still physically present within the grace period.
	if _, err := s.Find(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find of expired entry = %v, want ErrNotFound", err)
	}
	if s.Len() != 1 {
		t.Errorf("expired entry was physically removed before the grace period")
	}

	// A fresh write on the same id resurrects it without creating a second row.
	if _, err := s.Upsert(ctx, id, "v2", time.Minute); err != nil {
		t.Fatalf("Upsert over expired entry failed: %v", err)
	}
	got, err := s.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find after rewrite failed: %v", err)
	}
	if got.Value != "v2" {
		t.Errorf("value = %v, want v2", got.Value)
	}
}

func TestMemoryStore_GracePeriodRemoval(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()
	id := testID(t, "user:1")

	if _, err := s.Upsert(ctx, id, "v", 0); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := s.Find(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find past grace period = %v, want ErrNotFound", err)
	}
	if s.Len() != 0 {
		t.Error("entry survived past the grace period")
	}
}

func TestMemoryStore_CallCounters(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	id := testID(t, "user:1")

	_, _ = s.Upsert(ctx, id, "v", time.Minute)
	_, _ = s.Find(ctx, id)
	_, _ = s.Find(ctx, id)

	if s.UpsertCalls() != 1 {
		t.Errorf("UpsertCalls = %d, want 1", s.UpsertCalls())
	}
	if s.FindCalls() != 2 {
		t.Errorf("FindCalls = %d, want 2", s.FindCalls())
	}
}

func TestMemoryStore_Explain(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	id := testID(t, "user:1")

	for _, raw := range [][]byte{
		mustExplain(t, func() ([]byte, error) { return s.ExplainFind(ctx, id) }),
		mustExplain(t, func() ([]byte, error) { return s.ExplainUpsert(ctx, id, "v", time.Minute) }),
	} {
		var plan map[string]any
		if err := json.Unmarshal(raw, &plan); err != nil {
			t.Fatalf("explain output is not JSON: %v", err)
		}
		if plan["backend"] != "memory" {
			t.Errorf("explain backend = %v, want memory", plan["backend"])
		}
	}

	// Explain never touches entry data.
	if s.Len() != 0 {
		t.Error("explain created an entry")
	}
}

func mustExplain(t *testing.T, fn func() ([]byte, error)) []byte {
	t.Helper()
	raw, err := fn()
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	return raw
}
