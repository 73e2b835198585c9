// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTree writes each name -> content entry below root, creating parent
// directories, and returns the absolute paths sorted.
func WriteTree(t *testing.T, root string, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%s) error: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error: %v", path, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}
