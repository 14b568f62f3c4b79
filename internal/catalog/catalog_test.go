package catalog

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "asterism-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSet() []models.Constellation {
	return []models.Constellation{
		{
			Name:        "Aries",
			Start:       "2024-03-21",
			End:         "2024-04-19",
			Points:      []models.Star{{X: 0, Y: 0, Brightness: 1.35}, {X: 2.5, Y: -2.5, Brightness: 1.41}},
			Connections: []models.Edge{{0, 1}},
		},
		{
			Name:        "Taurus",
			Points:      []models.Star{},
			Connections: []models.Edge{},
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM constellations`).Scan(&count); err != nil {
		t.Fatalf("constellations table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
}

func TestReplaceAndList(t *testing.T) {
	db := testDB(t)
	if err := db.Replace(Run{SourceChecksum: "src", OutputChecksum: "out"}, sampleSet()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	items, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Name != "Aries" || items[0].PointCount != 2 || items[0].EdgeCount != 1 {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Name != "Taurus" || items[1].Position != 1 {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestReplaceDropsPreviousSet(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(Run{SourceChecksum: "1", OutputChecksum: "1"}, sampleSet())
	_ = db.Replace(Run{SourceChecksum: "2", OutputChecksum: "2"}, sampleSet()[1:])

	items, _ := db.List()
	if len(items) != 1 || items[0].Name != "Taurus" {
		t.Errorf("items = %+v, want only Taurus", items)
	}
	if _, err := db.Get("Aries"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get(Aries) err = %v, want ErrNotFound", err)
	}
}

func TestGet(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(Run{SourceChecksum: "s", OutputChecksum: "o"}, sampleSet())

	c, err := db.Get("Aries")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(c.Points) != 2 || c.Points[1].Brightness != 1.41 || c.Connections[0] != (models.Edge{0, 1}) {
		t.Errorf("constellation = %+v", c)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get("Ophiuchus"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLastRun(t *testing.T) {
	db := testDB(t)
	if _, err := db.LastRun(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("empty catalog err = %v, want ErrNotFound", err)
	}
	_ = db.Replace(Run{SourceChecksum: "first", OutputChecksum: "a"}, sampleSet())
	_ = db.Replace(Run{SourceChecksum: "second", OutputChecksum: "b"}, sampleSet())

	r, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if r.SourceChecksum != "second" || r.OutputChecksum != "b" || r.RecordCount != 2 {
		t.Errorf("run = %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}
