package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"recast/internal/imgerr"
)

// rawGrayCodec stores 8-bit gray pixels behind a small header. It stands in
// for a format registered from outside the package.
type rawGrayCodec struct{}

var rawGrayMagic = []byte("RGRY")

func (rawGrayCodec) Tag() Tag             { return ExternalFormat("rgry") }
func (rawGrayCodec) Name() string         { return "Raw gray" }
func (rawGrayCodec) Extensions() []string { return []string{"rgry", "gry"} }

func (rawGrayCodec) Match(header []byte) bool { return bytes.HasPrefix(header, rawGrayMagic) }

func (rawGrayCodec) Decode(data []byte) (image.Image, error) {
	if len(data) < 8 || !bytes.HasPrefix(data, rawGrayMagic) {
		return nil, fmt.Errorf("short header")
	}
	w := int(binary.BigEndian.Uint16(data[4:6]))
	h := int(binary.BigEndian.Uint16(data[6:8]))
	if len(data)-8 != w*h {
		return nil, fmt.Errorf("pixel data is %d bytes, want %d", len(data)-8, w*h)
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, data[8:])
	return img, nil
}

func (rawGrayCodec) Encode(w io.Writer, img image.Image, _ Level) error {
	b := img.Bounds()
	hdr := make([]byte, 8)
	copy(hdr, rawGrayMagic)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(b.Dx()))
	binary.BigEndian.PutUint16(hdr[6:8], uint16(b.Dy()))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	pix := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pix = append(pix, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	_, err := w.Write(pix)
	return err
}

func (rawGrayCodec) Conform(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func (rawGrayCodec) Level(*float64) Level { return NotApplicable }

func TestLookupAliases(t *testing.T) {
	reg := NewRegistry()

	cases := map[string]Tag{
		"jpg":   JPEG,
		".JPEG": JPEG,
		"jfif":  JPEG,
		"png":   PNG,
		"WebP":  WebP,
		".bmp":  BMP,
	}
	for name, want := range cases {
		c, err := reg.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if c.Tag() != want {
			t.Errorf("Lookup(%q) = %s, want %s", name, c.Tag(), want)
		}
	}

	if _, err := reg.Lookup("tiff"); !errors.Is(err, imgerr.ErrUnsupportedFormat) {
		t.Fatalf("tiff: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestForPathAndSupports(t *testing.T) {
	reg := NewRegistry()

	if !reg.Supports("/photos/IMG_0001.JPG") {
		t.Fatalf("upper-case JPG should be supported")
	}
	if reg.Supports("notes.txt") || reg.Supports("Makefile") {
		t.Fatalf("non-image paths should not be supported")
	}
	c, err := reg.ForPath("dir.d/shot.webp")
	if err != nil || c.Tag() != WebP {
		t.Fatalf("ForPath = %v, %v", c, err)
	}
}

func TestRegisterRejectsCollisions(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(pngCodec{}); err == nil {
		t.Fatalf("expected duplicate tag to be rejected")
	}

	type clash struct{ rawGrayCodec }
	if err := reg.Register(rawGrayCodec{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(clash{}); err == nil {
		t.Fatalf("expected duplicate registration to be rejected")
	}
	if n := len(reg.Codecs()); n != 5 {
		t.Fatalf("codecs = %d, want 5", n)
	}
}

func TestExternalCodecThroughHandle(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(rawGrayCodec{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, patternImage(12, 9))

	handle, err := Open(reg, src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := handle.Convert(ExternalFormat("rgry")); err != nil {
		t.Fatalf("convert: %v", err)
	}
	status, err := handle.Save("")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(status.OutputPath) != ".rgry" {
		t.Fatalf("output %s does not use the canonical extension", status.OutputPath)
	}
	if status.AfterSize != 8+12*9 {
		t.Fatalf("after size = %d, want %d", status.AfterSize, 8+12*9)
	}

	back, err := Open(reg, status.OutputPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if back.Tag() != ExternalFormat("rgry") || back.Size() != (ImgSize{Width: 12, Height: 9}) {
		t.Fatalf("reopened as %s %s", back.Tag(), back.Size())
	}
	if err := back.Convert(PNG); err != nil {
		t.Fatalf("convert back: %v", err)
	}
	if _, err := back.Save(filepath.Join(dir, "out.png")); err != nil {
		t.Fatalf("save png: %v", err)
	}
}

// bmPrefixCodec has a magic that starts like a bitmap.
type bmPrefixCodec struct{ rawGrayCodec }

func (bmPrefixCodec) Tag() Tag             { return ExternalFormat("bmrg") }
func (bmPrefixCodec) Name() string         { return "BM raw gray" }
func (bmPrefixCodec) Extensions() []string { return []string{"bmrg"} }

func (bmPrefixCodec) Match(header []byte) bool { return bytes.HasPrefix(header, []byte("BMRG")) }

func TestDetectExternalBeforeBuiltin(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(bmPrefixCodec{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	c, err := reg.Detect([]byte("BMRG\x00\x01\x00\x01\x7f"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if c.Tag() != ExternalFormat("bmrg") {
		t.Fatalf("detected %s, want bmrg", c.Tag())
	}

	var buf bytes.Buffer
	if err := (bmpCodec{}).Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), NotApplicable); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	if c, err := reg.Detect(buf.Bytes()); err != nil || c.Tag() != BMP {
		t.Fatalf("real bitmap detected as %v, %v", c, err)
	}
}

func TestDetectUnknownHeader(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Detect([]byte("GIF89a......")); !errors.Is(err, imgerr.ErrUnsupportedFormat) {
		t.Fatalf("gif: expected ErrUnsupportedFormat, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(reg, path); !errors.Is(err, imgerr.ErrUnsupportedFormat) {
		t.Fatalf("empty file: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseRect(t *testing.T) {
	r, err := ParseRect("10x20+30x40")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r != (Rect{X: 10, Y: 20, W: 30, H: 40}) {
		t.Fatalf("rect = %+v", r)
	}
	if r.String() != "10x20+30x40" {
		t.Fatalf("String() = %s", r.String())
	}

	for _, bad := range []string{"", "10x20", "10x20+30", "-1x0+1x1", "axb+cxd", "10x20+30x40+1"} {
		if _, err := ParseRect(bad); !errors.Is(err, imgerr.ErrInvalidParameter) {
			t.Errorf("ParseRect(%q): expected ErrInvalidParameter, got %v", bad, err)
		}
	}
}
