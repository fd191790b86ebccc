package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formkit/pkg/model"
)

// EnvUpdateGoldens enables golden rewriting when set to any non-empty value.
const EnvUpdateGoldens = "UPDATE_GOLDENS"

// LoadCatalog builds a catalog from in-memory form documents keyed by file
// name. Testing helpers fail the test on error to keep setup concise.
func LoadCatalog(t *testing.T, files map[string]string, loaders map[string]model.OptionLoader) *model.Catalog {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	catalog, err := model.LoadFS(fsys, loaders)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

// MustForm returns the form id of catalog.
func MustForm(t *testing.T, catalog *model.Catalog, id string) *model.FormSpec {
	t.Helper()

	spec, ok := catalog.Form(id)
	if !ok {
		t.Fatalf("form %q not found in catalog (have %v)", id, catalog.Forms())
	}
	return spec
}

// ObservedLogger returns a logger that records entries at level and above.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// AssertGolden compares value against the JSON golden at path. With
// UPDATE_GOLDENS set the golden is rewritten instead. Both sides are compared
// as decoded JSON so key order and indentation do not matter.
func AssertGolden(t *testing.T, path string, value any) {
	t.Helper()

	if WriteGolden(t, path, value) {
		return
	}

	var want any
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
	got := roundTrip(t, value)
	if diff := CompareGolden(want, got); diff != "" {
		t.Fatalf("golden mismatch for %s (-want +got):\n%s", path, diff)
	}
}

// WriteGolden writes value to path as indented JSON when UPDATE_GOLDENS is
// set. It reports whether the golden was written.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv(EnvUpdateGoldens) == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a context cancelled when the test finishes.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func roundTrip(t *testing.T, value any) any {
	t.Helper()
	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	return out
}
