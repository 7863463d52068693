// Package testutil provides shared test helpers for setting up stores and sessions.
package testutil

import (
	"testing"
	"time"

	"github.com/starford/docuflow/internal/catalog"
	"github.com/starford/docuflow/internal/organizer"
	"github.com/starford/docuflow/internal/storage"
)

// FixedTime is the clock used by TestSession.
var FixedTime = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)

// TestFS creates a temporary directory with an fs storage provider.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestStore loads a catalog over a fresh in-memory provider.
func TestStore(t *testing.T, opts ...catalog.Option) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(storage.NewMemory(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestSession creates a session over TestStore with the clock pinned to FixedTime.
func TestSession(t *testing.T, opts ...catalog.Option) *organizer.Session {
	t.Helper()
	return organizer.NewSession(TestStore(t, opts...),
		organizer.WithClock(func() time.Time { return FixedTime }))
}
