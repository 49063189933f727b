package format

import (
	"bytes"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"recast/internal/imgerr"
)

// Handle owns one decoded image for the duration of a pipeline run. It is
// not safe for concurrent use.
type Handle struct {
	reg   *Registry
	codec Codec
	img   image.Image

	srcPath string
	srcInfo fs.FileInfo
	exif    ExifSummary

	dstPath string
	dstInfo fs.FileInfo

	level    Level
	levelSet bool
	encoded  []byte
}

// Open reads, sniffs and decodes the file at path.
func Open(reg *Registry, path string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryIO, "stat", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryIO, "read", path, err)
	}
	return Decode(reg, path, data, info)
}

// Decode builds a handle from already-read bytes. info describes the source
// file and supplies the before-size reported by Save.
func Decode(reg *Registry, path string, data []byte, info fs.FileInfo) (*Handle, error) {
	codec, err := reg.Detect(data)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryDecode, "detect", path, err)
	}

	img, err := codec.Decode(data)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryDecode, "decode", path,
			fmt.Errorf("%w: %s: %v", imgerr.ErrDecode, codec.Name(), err))
	}

	return &Handle{
		reg:     reg,
		codec:   codec,
		img:     img,
		srcPath: path,
		srcInfo: info,
		exif:    readExif(data),
	}, nil
}

// Convert hands the image over to the target format. The old buffer is
// dropped and any pending compression is discarded.
func (h *Handle) Convert(target Tag) error {
	codec, err := h.reg.Codec(target)
	if err != nil {
		return imgerr.Wrap(imgerr.CategoryInput, "convert", h.srcPath,
			fmt.Errorf("%w: %s -> %s", imgerr.ErrUnsupportedConversion, h.codec.Tag(), target))
	}

	h.img = codec.Conform(h.img)
	h.codec = codec
	h.level = NotApplicable
	h.levelSet = false
	h.encoded = nil
	return nil
}

// Compress encodes the current image at the level mapped from q and keeps
// the result for Save. A nil q selects the format default.
func (h *Handle) Compress(q *float64) error {
	if q != nil {
		if err := ValidateQuality(*q); err != nil {
			return imgerr.Wrap(imgerr.CategoryInput, "compress", h.srcPath, err)
		}
	}

	level := h.codec.Level(q)
	data, err := h.encode(level)
	if err != nil {
		return err
	}

	h.level = level
	h.levelSet = true
	h.encoded = data
	return nil
}

// Resize scales both dimensions by ratio percent with a Lanczos filter.
func (h *Handle) Resize(ratio int) (ImgSize, error) {
	if ratio <= 0 || ratio > 100 {
		return h.Size(), imgerr.Wrap(imgerr.CategoryInput, "resize", h.srcPath,
			fmt.Errorf("%w: resize ratio %d must be in (0,100]", imgerr.ErrInvalidParameter, ratio))
	}
	if ratio == 100 {
		return h.Size(), nil
	}

	cur := h.Size()
	w := max(cur.Width*ratio/100, 1)
	hh := max(cur.Height*ratio/100, 1)

	h.replace(imaging.Resize(h.img, w, hh, imaging.Lanczos))
	return h.Size(), nil
}

// Trim crops to r.
func (h *Handle) Trim(r Rect) (ImgSize, error) {
	cur := h.Size()
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 {
		return cur, imgerr.Wrap(imgerr.CategoryInput, "trim", h.srcPath,
			fmt.Errorf("%w: trim %s must have positive size", imgerr.ErrInvalidParameter, r))
	}
	if r.X > cur.Width || r.Y > cur.Height || r.W > cur.Width-r.X || r.H > cur.Height-r.Y {
		return cur, imgerr.Wrap(imgerr.CategoryInput, "trim", h.srcPath,
			fmt.Errorf("%w: trim %s exceeds image %s", imgerr.ErrOutOfBounds, r, cur))
	}

	origin := h.img.Bounds().Min
	rect := image.Rect(origin.X+r.X, origin.Y+r.Y, origin.X+r.X+r.W, origin.Y+r.Y+r.H)
	h.replace(imaging.Crop(h.img, rect))
	return h.Size(), nil
}

// TrimXYWH is Trim with the rectangle given as separate values.
func (h *Handle) TrimXYWH(x, y, w, hh int) (ImgSize, error) {
	return h.Trim(Rect{X: x, Y: y, W: w, H: hh})
}

// Grayscale converts the image to 8-bit luminance. It cannot be undone.
func (h *Handle) Grayscale() {
	h.replace(effect.Grayscale(h.img))
}

// Save writes the image to path. An empty path means the source path with
// the extension of the current format; a directory receives the source
// file name.
func (h *Handle) Save(path string) (SaveStatus, error) {
	dest, err := h.destination(path)
	if err != nil {
		return SaveStatus{}, err
	}

	data := h.encoded
	if data == nil {
		level := h.level
		if !h.levelSet {
			level = h.codec.Level(nil)
		}
		if data, err = h.encode(level); err != nil {
			return SaveStatus{}, err
		}
	}

	perm := fs.FileMode(0o644)
	if h.srcInfo != nil {
		perm = h.srcInfo.Mode().Perm()
	}
	if err := writeAtomic(dest, data, perm); err != nil {
		return SaveStatus{}, imgerr.Wrap(imgerr.CategoryIO, "write", h.srcPath, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return SaveStatus{}, imgerr.Wrap(imgerr.CategoryIO, "stat", h.srcPath, err)
	}
	h.dstPath = dest
	h.dstInfo = info

	return SaveStatus{
		OutputPath: dest,
		BeforeSize: h.SourceSize(),
		AfterSize:  info.Size(),
	}, nil
}

func (h *Handle) destination(path string) (string, error) {
	ext := "." + h.codec.Extensions()[0]
	base := filepath.Base(h.srcPath)
	if path == "" {
		return strings.TrimSuffix(h.srcPath, filepath.Ext(h.srcPath)) + ext, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if base == "." || base == string(filepath.Separator) {
			return "", imgerr.Wrap(imgerr.CategoryInput, "save", h.srcPath, imgerr.ErrFailedToResolveFilename)
		}
		return filepath.Join(path, strings.TrimSuffix(base, filepath.Ext(base))+ext), nil
	}
	return path, nil
}

func (h *Handle) encode(level Level) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.codec.Encode(&buf, h.img, level); err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryEncode, "encode", h.srcPath,
			fmt.Errorf("%w: %s: %v", imgerr.ErrEncode, h.codec.Name(), err))
	}
	return buf.Bytes(), nil
}

// replace installs a new pixel buffer; pending encodings no longer match it.
func (h *Handle) replace(img image.Image) {
	h.img = img
	h.encoded = nil
}

func (h *Handle) Tag() Tag                { return h.codec.Tag() }
func (h *Handle) Codec() Codec            { return h.codec }
func (h *Handle) Size() ImgSize           { return sizeOf(h.img) }
func (h *Handle) ColorMode() string       { return ColorMode(h.img) }
func (h *Handle) Exif() ExifSummary       { return h.exif }
func (h *Handle) Level() Level            { return h.level }
func (h *Handle) SourcePath() string      { return h.srcPath }
func (h *Handle) DestinationPath() string { return h.dstPath }

// Image exposes the current buffer for read-only use such as previews.
func (h *Handle) Image() image.Image { return h.img }

func (h *Handle) SourceInfo() fs.FileInfo      { return h.srcInfo }
func (h *Handle) DestinationInfo() fs.FileInfo { return h.dstInfo }

// SourceSize is the size of the source file when it was opened.
func (h *Handle) SourceSize() int64 {
	if h.srcInfo == nil {
		return 0
	}
	return h.srcInfo.Size()
}
