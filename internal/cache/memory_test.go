package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cardsnap/cardsnap/internal/entity"
)

func sampleResult(engineID string, age time.Duration) entity.RecognitionResult {
	return entity.RecognitionResult{
		ID:          uuid.New(),
		RawText:     "John Doe",
		Confidence:  0.9,
		EngineID:    engineID,
		ProcessedAt: time.Now().UTC().Add(-age),
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("image-bytes"))
	b := Fingerprint([]byte("image-bytes"))
	c := Fingerprint([]byte("other-bytes"))
	if a != b {
		t.Fatal("same bytes must fingerprint identically")
	}
	if a == c {
		t.Fatal("different bytes must fingerprint differently")
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()
	key := Fingerprint([]byte("card"))

	if _, ok := m.Get(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	res := sampleResult("tesseract", 0)
	m.Put(ctx, key, res)

	got, ok := m.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.ID != res.ID || got.RawText != res.RawText {
		t.Fatalf("got %+v, want stored result", got)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestMemoryIsValid(t *testing.T) {
	m := NewMemory(time.Hour)

	fresh := sampleResult("tesseract", time.Minute)
	if !m.IsValid(fresh, "tesseract") {
		t.Fatal("fresh same-engine result should be valid")
	}
	if m.IsValid(fresh, "gosseract") {
		t.Fatal("result from another engine must be invalid")
	}

	stale := sampleResult("tesseract", 2*time.Hour)
	if m.IsValid(stale, "tesseract") {
		t.Fatal("result older than max age must be invalid")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Fingerprint([]byte{byte(n % 4)})
			m.Put(ctx, key, sampleResult("tesseract", 0))
			m.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4 distinct keys", m.Len())
	}
}
