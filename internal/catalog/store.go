package catalog

import "github.com/starford/asterism/internal/models"

// Store defines the catalog operations used by the converter and the
// HTTP and MCP surfaces.
type Store interface {
	Replace(run Run, cs []models.Constellation) error
	List() ([]Summary, error)
	Get(name string) (*models.Constellation, error)
	LastRun() (*Run, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
