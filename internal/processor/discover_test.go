package processor

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"recast/internal/format"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.JPG"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.webp"))
	touch(t, filepath.Join(dir, "out", "a.bmp"))

	reg := format.NewRegistry()

	flat, err := Discover(reg, []string{dir}, DiscoverOptions{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png")}
	if !reflect.DeepEqual(flat, want) {
		t.Fatalf("flat = %v, want %v", flat, want)
	}

	deep, err := Discover(reg, []string{dir}, DiscoverOptions{Recursive: true, Exclude: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want = []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png"), filepath.Join(dir, "nested", "c.webp")}
	if !reflect.DeepEqual(deep, want) {
		t.Fatalf("recursive = %v, want %v", deep, want)
	}
}

func TestDiscoverGlobAndDedup(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "1.png"))
	touch(t, filepath.Join(dir, "2.png"))
	touch(t, filepath.Join(dir, "3.bmp"))

	got, err := Discover(format.NewRegistry(), []string{
		filepath.Join(dir, "*.png"),
		filepath.Join(dir, "2.png"),
		filepath.Join(dir, "3.bmp"),
	}, DiscoverOptions{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{filepath.Join(dir, "1.png"), filepath.Join(dir, "2.png"), filepath.Join(dir, "3.bmp")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiscoverKeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	odd := filepath.Join(dir, "scan.tiff")
	touch(t, odd)

	got, err := Discover(format.NewRegistry(), []string{odd}, DiscoverOptions{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 1 || got[0] != odd {
		t.Fatalf("explicit file dropped: %v", got)
	}
}

func TestDiscoverReportsEmptyPatterns(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "1.png"))

	got, err := Discover(format.NewRegistry(), []string{
		filepath.Join(dir, "*.gif"),
		filepath.Join(dir, "1.png"),
		filepath.Join(dir, "missing.webp"),
	}, DiscoverOptions{})
	if err == nil {
		t.Fatalf("expected an error for patterns without matches")
	}
	if !strings.Contains(err.Error(), "*.gif") || !strings.Contains(err.Error(), "missing.webp") {
		t.Fatalf("error does not name both patterns: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("matched files = %v, want the one existing file", got)
	}
}

func TestDiscoverSniffsExtensionless(t *testing.T) {
	dir := t.TempDir()
	header := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	if err := os.WriteFile(filepath.Join(dir, "IMG0001"), header, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	touch(t, filepath.Join(dir, "README"))

	got, err := Discover(format.NewRegistry(), []string{dir}, DiscoverOptions{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "IMG0001" {
		t.Fatalf("got %v, want only the sniffed PNG", got)
	}
}
