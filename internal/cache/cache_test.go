package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type report struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func newCache(t *testing.T, fingerprint string) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, fingerprint, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c, err := New(dir, 24, "fp", true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}

	c, err = New("", 0, "", false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestSetAndGet(t *testing.T) {
	c := newCache(t, "fp")
	content := []byte("struct S {};\n")

	if err := c.Set("src/s.cpp", content, report{Path: "src/s.cpp", Count: 3}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got report
	if !c.Get("src/s.cpp", content, &got) {
		t.Fatal("Get() should hit")
	}
	if got.Count != 3 || got.Path != "src/s.cpp" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestGetMisses(t *testing.T) {
	c := newCache(t, "fp")
	content := []byte("int x;\n")
	if err := c.Set("a.cpp", content, report{Count: 1}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got report
	if c.Get("b.cpp", content, &got) {
		t.Error("Get() should miss for an unknown path")
	}
	if c.Get("a.cpp", []byte("int y;\n"), &got) {
		t.Error("Get() should miss when the content changed")
	}

	other, err := New(c.dir, 24, "other", true)
	if err != nil {
		t.Fatal(err)
	}
	if other.Get("a.cpp", content, &got) {
		t.Error("Get() should miss when the fingerprint changed")
	}
}

func TestGetExpired(t *testing.T) {
	c := newCache(t, "fp")
	content := []byte("x")

	entry := Entry{
		Path:      "old.cpp",
		Hash:      c.ContentHash(content),
		Timestamp: time.Now().Add(-48 * time.Hour),
		Data:      json.RawMessage(`{"count":1}`),
	}
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(c.keyPath("old.cpp"), data, 0600); err != nil {
		t.Fatal(err)
	}

	var got report
	if c.Get("old.cpp", content, &got) {
		t.Error("Get() should miss for an expired entry")
	}
	if _, err := os.Stat(c.keyPath("old.cpp")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestGetCorrupt(t *testing.T) {
	c := newCache(t, "fp")
	if err := os.WriteFile(c.keyPath("bad.cpp"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	var got report
	if c.Get("bad.cpp", nil, &got) {
		t.Error("Get() should miss for a corrupt entry")
	}
}

func TestDisabledCache(t *testing.T) {
	c, _ := New("", 0, "", false)

	if err := c.Set("a.cpp", nil, report{}); err != nil {
		t.Errorf("Set() on disabled cache error: %v", err)
	}
	var got report
	if c.Get("a.cpp", nil, &got) {
		t.Error("disabled cache should never hit")
	}
	if err := c.Invalidate("a.cpp"); err != nil {
		t.Errorf("Invalidate() error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() error: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() = %+v, %v", stats, err)
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := newCache(t, "fp")
	for _, p := range []string{"a.cpp", "b.cpp"} {
		if err := c.Set(p, []byte(p), report{Path: p}); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Invalidate("a.cpp"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if err := c.Invalidate("missing.cpp"); err != nil {
		t.Errorf("Invalidate() of a missing entry should succeed: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
	if stats.TotalSize == 0 {
		t.Error("TotalSize should be positive")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(c.dir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("hello"))
	if len(a) != 64 {
		t.Errorf("HashBytes() length = %d, want 64", len(a))
	}
	if a != HashBytes([]byte("hello")) {
		t.Error("HashBytes() should be deterministic")
	}
	if a == HashBytes([]byte("world")) {
		t.Error("different input should hash differently")
	}
}
