package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeyForFile(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	if err := os.WriteFile(a, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	keyA, err := KeyForFile(a)
	if err != nil {
		t.Fatal(err)
	}
	keyB, err := KeyForFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if keyA != keyB {
		t.Error("identical content should hash to the same key")
	}

	if err := os.WriteFile(b, []byte("different bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	keyB2, err := KeyForFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if keyA == keyB2 {
		t.Error("different content should hash to different keys")
	}

	if _, err := KeyForFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPutRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("deadbeef"); ok {
		t.Fatal("empty cache should miss")
	}

	src := filepath.Join(dir, "transcribed.mid")
	content := []byte("MThd fake midi payload")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	cached, err := c.Put("deadbeef", src)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("deadbeef")
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got != cached {
		t.Errorf("Get path %q != Put path %q", got, cached)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Error("cached content differs from source")
	}
}
