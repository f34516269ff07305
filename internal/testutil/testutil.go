// Package testutil provides shared test helpers for setting up content
// stores and asset directories.
package testutil

import (
	"os"
	"testing"

	"github.com/getlost/portal/internal/assetstore"
	"github.com/getlost/portal/internal/contentstore"
)

// TestDB creates a temporary SQLite content store that is automatically
// cleaned up.
func TestDB(t *testing.T) *contentstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "getlost-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := contentstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestAssets creates a temporary asset store served under /assets.
func TestAssets(t *testing.T) *assetstore.FS {
	t.Helper()
	store, err := assetstore.NewFS(t.TempDir(), "/assets")
	if err != nil {
		t.Fatal(err)
	}
	return store
}
