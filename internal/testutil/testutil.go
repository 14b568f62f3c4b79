// Package testutil provides shared test helpers for data directories and catalogs.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/asterism/internal/catalog"
	"github.com/starford/asterism/internal/storage"
)

// Source is a small source document with three constellations, one of
// which has no points block.
const Source = `export default {
    zodiac_data: [
        {
            name: 'Aries',
            start: '2024-03-21',
            end: '2024-04-19',
            points: [
                [{ x: 0, y: 0 }, { x: 1, y: 1 }],
                [{ x: 1, y: 1 }, { x: 2, y: 2 }]
            ]
        },
        {
            name: 'Gemini',
            start: '2024-05-21',
            end: '2024-06-20',
            points: [
                [{ x: 5, y: 5 }, { x: 5.05, y: 5.04 }]
            ]
        },
        {
            name: 'Draft',
            start: '2024-01-01'
        }
    ]
};
`

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "asterism-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestData creates a temporary data directory with a storage.FS on top.
func TestData(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
