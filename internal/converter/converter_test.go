package converter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/catalog"
	"github.com/starford/asterism/internal/checksum"
	"github.com/starford/asterism/internal/emitter"
	"github.com/starford/asterism/internal/models"
	"github.com/starford/asterism/internal/parser"
	"github.com/starford/asterism/internal/testutil"
)

func TestConvert_Examples(t *testing.T) {
	res, err := Convert([]byte(testutil.Source), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// Draft has no points block and is dropped.
	if res.Records() != 2 {
		t.Fatalf("records = %d, want 2", res.Records())
	}

	aries := res.Constellations[0]
	if len(aries.Points) != 3 {
		t.Errorf("aries points = %d, want 3", len(aries.Points))
	}
	if len(aries.Connections) != 2 || aries.Connections[0] != (models.Edge{0, 1}) || aries.Connections[1] != (models.Edge{1, 2}) {
		t.Errorf("aries connections = %v", aries.Connections)
	}

	gemini := res.Constellations[1]
	if len(gemini.Points) != 1 || len(gemini.Connections) != 1 || gemini.Connections[0] != (models.Edge{0, 0}) {
		t.Errorf("gemini = %+v, want one star with a self-loop", gemini)
	}

	if res.Points != 4 || res.Edges != 3 {
		t.Errorf("totals = %d points, %d edges", res.Points, res.Edges)
	}
}

func TestConvert_Deterministic(t *testing.T) {
	a, err := Convert([]byte(testutil.Source), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	b, _ := Convert([]byte(testutil.Source), Options{})
	if !bytes.Equal(a.Output, b.Output) {
		t.Error("identical input produced different output")
	}
	if a.OutputChecksum != b.OutputChecksum || a.SourceChecksum != b.SourceChecksum {
		t.Error("checksums differ between identical runs")
	}
}

func TestConvert_BrightnessBounds(t *testing.T) {
	res, err := Convert([]byte(testutil.Source), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, c := range res.Constellations {
		for _, p := range c.Points {
			if p.Brightness < 1.2 || p.Brightness > 1.89 {
				t.Errorf("%s: brightness %v out of range", c.Name, p.Brightness)
			}
		}
	}
}

func TestConvert_BlockNotFound(t *testing.T) {
	_, err := Convert([]byte(`nothing here`), Options{})
	if !errors.Is(err, parser.ErrBlockNotFound) {
		t.Fatalf("err = %v, want ErrBlockNotFound", err)
	}
}

func TestConvert_NoRecords(t *testing.T) {
	_, err := Convert([]byte(`zodiac_data: [ { name: 'Draft' } ]`), Options{})
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("err = %v, want ErrNoRecords", err)
	}
}

func TestSourceKey_CoversOptions(t *testing.T) {
	data := []byte(testutil.Source)
	js := SourceKey(data, Options{})
	json := SourceKey(data, Options{Emit: emitter.Options{Format: emitter.FormatJSON}})
	if js == json {
		t.Error("source key should change with the output format")
	}
}

func TestSourceKey_CoversFormatVersion(t *testing.T) {
	data := []byte(testutil.Source)
	unversioned := checksum.Sum(append(append([]byte{}, data...), "\x00\x00\x00"...))
	if SourceKey(data, Options{}) == unversioned {
		t.Error("source key should include the format version")
	}
	want := checksum.Sum(append(append([]byte{}, data...), "\x00v"+FormatVersion+"\x00\x00\x00"...))
	if got := SourceKey(data, Options{}); got != want {
		t.Errorf("SourceKey = %s, want %s", got, want)
	}
}

func newService(t *testing.T, cat catalog.Store, cfg Config) (string, *Service) {
	t.Helper()
	dir, store := testutil.TestData(t)
	if cfg.Input == "" {
		cfg.Input = "source.txt"
	}
	if cfg.Output == "" {
		cfg.Output = "out/converted.txt"
	}
	return dir, NewService(store, cat, cfg, testutil.Logger())
}

func TestServiceRun_WritesOutput(t *testing.T) {
	dir, svc := newService(t, nil, Config{})
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(testutil.Source), 0o644)

	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Outcome != OutcomeConverted || rep.Records != 2 || rep.Result.Records() != 2 {
		t.Errorf("report = %+v", rep)
	}
	got, err := os.ReadFile(filepath.Join(dir, "out", "converted.txt"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !bytes.Equal(got, rep.Result.Output) {
		t.Error("file content differs from result output")
	}
}

func TestServiceRun_FailureWritesNothing(t *testing.T) {
	dir, svc := newService(t, nil, Config{})
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(`no block`), 0o644)

	rep, err := svc.Run(context.Background())
	if !errors.Is(err, parser.ErrBlockNotFound) {
		t.Fatalf("err = %v, want ErrBlockNotFound", err)
	}
	if rep.Outcome != OutcomeFailed {
		t.Errorf("outcome = %q", rep.Outcome)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "converted.txt")); !os.IsNotExist(err) {
		t.Error("output file must not be written on failure")
	}
}

func TestServiceRun_MissingInput(t *testing.T) {
	_, svc := newService(t, nil, Config{})
	if _, err := svc.Run(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestServiceRun_UnchangedWithCatalog(t *testing.T) {
	cat := testutil.TestCatalog(t)
	dir, svc := newService(t, cat, Config{})
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(testutil.Source), 0o644)

	if rep, err := svc.Run(context.Background()); err != nil || rep.Outcome != OutcomeConverted {
		t.Fatalf("first run = %+v, %v", rep, err)
	}
	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.Outcome != OutcomeUnchanged {
		t.Errorf("outcome = %q, want unchanged", rep.Outcome)
	}
	if rep.Records != 2 {
		t.Errorf("unchanged records = %d, want 2", rep.Records)
	}

	items, _ := cat.List()
	if len(items) != 2 {
		t.Errorf("catalog items = %d, want 2", len(items))
	}

	// A tampered output file is rewritten.
	_ = os.WriteFile(filepath.Join(dir, "out", "converted.txt"), []byte("edited"), 0o644)
	rep, _ = svc.Run(context.Background())
	if rep.Outcome != OutcomeConverted {
		t.Errorf("outcome after tampering = %q, want converted", rep.Outcome)
	}
}

func TestServiceRun_UnchangedLogsCount(t *testing.T) {
	cat := testutil.TestCatalog(t)
	dir, store := testutil.TestData(t)
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(testutil.Source), 0o644)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(store, cat, Config{Input: "source.txt", Output: "converted.txt"}, logger)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	buf.Reset()

	rep, err := svc.Run(context.Background())
	if err != nil || rep.Outcome != OutcomeUnchanged {
		t.Fatalf("second run = %+v, %v", rep, err)
	}
	out := buf.String()
	if !strings.Contains(out, `msg="convert: converted 2 constellations"`) {
		t.Errorf("count diagnostic missing on unchanged pass:\n%s", out)
	}
	if !strings.Contains(out, "records=2") || !strings.Contains(out, "outcome=unchanged") {
		t.Errorf("attrs missing on unchanged pass:\n%s", out)
	}
}

func TestServiceRun_Force(t *testing.T) {
	cat := testutil.TestCatalog(t)
	dir, svc := newService(t, cat, Config{Force: true})
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(testutil.Source), 0o644)

	_, _ = svc.Run(context.Background())
	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Outcome != OutcomeConverted {
		t.Errorf("outcome = %q, want converted", rep.Outcome)
	}
}

func TestServiceRun_CanceledContext(t *testing.T) {
	dir, svc := newService(t, nil, Config{})
	_ = os.WriteFile(filepath.Join(dir, "source.txt"), []byte(testutil.Source), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "converted.txt")); !os.IsNotExist(err) {
		t.Error("output must not be written after cancellation")
	}
}

func TestServicePreview_Empty(t *testing.T) {
	_, svc := newService(t, nil, Config{})
	if _, err := svc.Preview(context.Background(), []byte("  \n")); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestServicePreview(t *testing.T) {
	_, svc := newService(t, nil, Config{Options: Options{Emit: emitter.Options{Format: emitter.FormatJSON}}})
	res, err := svc.Preview(context.Background(), []byte(testutil.Source))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !bytes.HasPrefix(res.Output, []byte("{")) {
		t.Errorf("preview should honour the JSON format, got %q", res.Output[:20])
	}
}
