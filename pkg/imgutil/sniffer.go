package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies an image encoding recognised by its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindWebP
	KindBMP
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindWebP:
		return "webp"
	case KindBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader needs to tell all kinds apart.
const HeaderSize = 12

var (
	pngSig  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig = []byte{0xff, 0xd8, 0xff}
	riffSig = []byte("RIFF")
	webpSig = []byte("WEBP")
	bmpSig  = []byte("BM")
)

// DetectHeader inspects the leading bytes of a file for known signatures.
// Headers shorter than HeaderSize are accepted; kinds that need more bytes
// are simply not matched.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < len(bmpSig) {
		return KindUnknown, errors.New("header too short")
	}

	switch {
	case bytes.HasPrefix(header, jpegSig):
		return KindJPEG, nil
	case bytes.HasPrefix(header, pngSig):
		return KindPNG, nil
	case len(header) >= HeaderSize && bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], webpSig):
		return KindWebP, nil
	case isBMP(header):
		return KindBMP, nil
	}

	return KindUnknown, nil
}

// isBMP wants the "BM" magic followed by the file size and the two reserved
// words, which are always zero.
func isBMP(header []byte) bool {
	if len(header) < 10 || !bytes.HasPrefix(header, bmpSig) {
		return false
	}
	return bytes.Equal(header[6:10], []byte{0, 0, 0, 0})
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return KindUnknown, err
	}

	return DetectHeader(header[:n])
}
