// Package cache is the content-addressed store for recognition results.
// The cache is an optimization only: correctness never depends on its
// content, so every read or write failure degrades to a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// DefaultMaxAge is how long a cached recognition stays valid.
const DefaultMaxAge = 7 * 24 * time.Hour

// Fingerprint returns the deterministic cache key for an image payload:
// a hash of the bytes, never the file path.
func Fingerprint(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// ResultCache maps image fingerprints to previously computed results.
// Implementations must be safe for concurrent use; callers tolerate
// lost-update races on Put.
type ResultCache interface {
	// Get returns the cached result for key. A miss or read error returns
	// ok=false, never an error.
	Get(ctx context.Context, key string) (entity.RecognitionResult, bool)
	// Put stores a result. Write errors are swallowed.
	Put(ctx context.Context, key string, res entity.RecognitionResult)
	// IsValid reports whether a cached result may still be served: young
	// enough and produced by the engine the caller is about to use.
	IsValid(res entity.RecognitionResult, engineID string) bool
}
