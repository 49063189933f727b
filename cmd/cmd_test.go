package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"recast/internal/imgerr"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 20), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFormatsCommand(t *testing.T) {
	out, err := execute(t, "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	for _, want := range []string{"JPEG", "jpg, jpeg, jfif", "WebP", "compression level 1-6", "not applicable"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBatchConvertsDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeImage(t, filepath.Join(dir, "a.png"))
	writeImage(t, filepath.Join(dir, "b.png"))

	out, err := execute(t, "--plain", "-c", "bmp", "-a", "_x", "-o", "converted", ".")
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}
	for _, name := range []string{"a_x.bmp", "b_x.bmp"} {
		if _, err := os.Stat(filepath.Join(dir, "converted", name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "Created") {
		t.Fatalf("summary not printed:\n%s", out)
	}
}

func TestBatchSkipIsNonZero(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src)
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("existing"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execute(t, "--plain", "-n", "-c", "jpg", src)
	if !errors.Is(err, errIncomplete) {
		t.Fatalf("expected errIncomplete, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "skipped: exists") {
		t.Fatalf("skip not reported:\n%s", out)
	}
}

func TestBatchConfigErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src)

	if _, err := execute(t, "-y", "-n", "-g", src); !errors.Is(err, imgerr.ErrConflictingPolicy) {
		t.Fatalf("expected ErrConflictingPolicy, got %v", err)
	}
	if _, err := execute(t, src); err == nil || !strings.Contains(err.Error(), "nothing to do") {
		t.Fatalf("expected nothing-to-do error, got %v", err)
	}
	if _, err := execute(t, "-q", "0", src); !errors.Is(err, imgerr.ErrInvalidParameter) {
		t.Fatalf("expected invalid quality, got %v", err)
	}
	if _, err := execute(t, "-t", "10x10", src); !errors.Is(err, imgerr.ErrInvalidParameter) {
		t.Fatalf("expected invalid trim, got %v", err)
	}
	if _, err := execute(t, "-c", "tiff", src); !errors.Is(err, imgerr.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(err) {
		t.Fatalf("configuration errors must not produce output")
	}
}
