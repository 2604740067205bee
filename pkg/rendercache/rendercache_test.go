package rendercache

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestCache(t *testing.T, dir string) *Cache {
	t.Helper()
	cache, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return cache
}

func TestCache_GetMiss(t *testing.T) {
	cache := openTestCache(t, t.TempDir())
	defer cache.Close()

	data, found, err := cache.Get(Key("missing"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found || data != nil {
		t.Errorf("Get() = %v, %v, want miss", data, found)
	}
}

func TestCache_PutGet(t *testing.T) {
	cache := openTestCache(t, t.TempDir())
	defer cache.Close()

	key := Key("random-spheres", "64", "1", "42")
	want := []byte("\x89PNG fake image bytes")
	if err := cache.Put(key, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := cache.Get(key)
	if err != nil || !found {
		t.Fatalf("Get() = found %v, error %v", found, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	replacement := []byte("second render")
	if err := cache.Put(key, replacement); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _, err = cache.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, replacement) {
		t.Errorf("Get() after overwrite = %q, want %q", got, replacement)
	}
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	key := Key("single-sphere")

	cache := openTestCache(t, dir)
	if err := cache.Put(key, []byte("persisted")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := openTestCache(t, dir)
	defer reopened.Close()
	got, found, err := reopened.Get(key)
	if err != nil || !found {
		t.Fatalf("Get() after reopen = found %v, error %v", found, err)
	}
	if string(got) != "persisted" {
		t.Errorf("Get() = %q, want persisted", got)
	}
}

func TestKey(t *testing.T) {
	if !bytes.Equal(Key("a", "b"), Key("a", "b")) {
		t.Error("Key() is not deterministic")
	}

	distinct := [][]string{
		{"ab", "c"},
		{"a", "bc"},
		{"abc"},
		{"abc", ""},
		{},
	}
	seen := make(map[string][]string)
	for _, parts := range distinct {
		k := string(Key(parts...))
		if other, ok := seen[k]; ok {
			t.Errorf("Key(%q) collides with Key(%q)", parts, other)
		}
		seen[k] = parts
	}

	if got := len(Key("x")); got != len(keyPrefix)+64 {
		t.Errorf("len(Key()) = %d, want %d", got, len(keyPrefix)+64)
	}
}
