package scan

import (
	"path/filepath"
	"testing"
)

func TestCache_ReadThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dcm")
	writeSlice(t, path, 1, 1)

	cache, err := NewCache()
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load (cached): %v", err)
	}
	if first != second {
		t.Error("second load should return the cached file")
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestCache_LoadFailureNotCached(t *testing.T) {
	cache, err := NewCache()
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.dcm")); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0 after failed load", cache.Len())
	}
}

func TestCache_DistinctPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dcm")
	b := filepath.Join(dir, "b.dcm")
	writeSlice(t, a, 1, 1)
	writeSlice(t, b, 1, 2)

	cache, err := NewCache()
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	fa, err := cache.Load(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := cache.Load(b)
	if err != nil {
		t.Fatal(err)
	}
	if fa == fb {
		t.Error("distinct paths should cache distinct files")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}
