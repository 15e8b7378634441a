// Package secrets provides read-only access to credentials. The pipeline
// only ever reads secrets; it never writes or stores them.
package secrets

import "os"

// Store resolves a named secret. Absent secrets return ok=false, never an
// error: a missing credential is routed to fallback, not treated as a fault.
type Store interface {
	GetSecret(name string) (string, bool)
}

// EnvStore reads secrets from environment variables.
type EnvStore struct{}

func (EnvStore) GetSecret(name string) (string, bool) {
	v := os.Getenv(name)
	return v, v != ""
}

// StaticStore serves a fixed map, mainly for tests and embedding callers.
type StaticStore map[string]string

func (s StaticStore) GetSecret(name string) (string, bool) {
	v, ok := s[name]
	return v, ok && v != ""
}
