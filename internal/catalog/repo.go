package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/models"
)

// Summary is the list view of one stored constellation.
type Summary struct {
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Start      string `json:"start"`
	End        string `json:"end"`
	PointCount int    `json:"point_count"`
	EdgeCount  int    `json:"edge_count"`
}

// Run records one conversion pass that reached the catalog.
type Run struct {
	ID             int64     `json:"id"`
	SourceChecksum string    `json:"source_checksum"`
	OutputChecksum string    `json:"output_checksum"`
	RecordCount    int       `json:"record_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Replace swaps the stored constellations for cs and appends run, in one
// transaction. Positions follow the order of cs.
func (db *DB) Replace(run Run, cs []models.Constellation) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM constellations`); err != nil {
		return fmt.Errorf("catalog: clear constellations: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO constellations (position, name, start_date, end_date, point_count, edge_count, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range cs {
		body, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("catalog: marshal %s: %w", c.Name, err)
		}
		if _, err := stmt.Exec(i, c.Name, c.Start, c.End, len(c.Points), len(c.Connections), string(body)); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", c.Name, err)
		}
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO runs (source_checksum, output_checksum, record_count, created_at)
		VALUES (?, ?, ?, ?)
	`, run.SourceChecksum, run.OutputChecksum, len(cs), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("catalog: insert run: %w", err)
	}

	return tx.Commit()
}

// List returns every stored constellation in source order.
func (db *DB) List() ([]Summary, error) {
	rows, err := db.conn.Query(`
		SELECT position, name, start_date, end_date, point_count, edge_count
		FROM constellations
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Position, &s.Name, &s.Start, &s.End, &s.PointCount, &s.EdgeCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns the first stored constellation with the given name.
func (db *DB) Get(name string) (*models.Constellation, error) {
	var body string
	err := db.conn.QueryRow(`
		SELECT body FROM constellations WHERE name = ? ORDER BY position LIMIT 1
	`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", name, err)
	}
	var c models.Constellation
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", name, err)
	}
	return &c, nil
}

// LastRun returns the most recent run, or apperr.ErrNotFound when the
// catalog has never been written.
func (db *DB) LastRun() (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, source_checksum, output_checksum, record_count, created_at
		FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.SourceChecksum, &r.OutputChecksum, &r.RecordCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: last run: %w", err)
	}
	return &r, nil
}
