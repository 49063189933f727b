package format

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"recast/internal/imgerr"
	"recast/pkg/imgutil"
)

// Registry maps format tags and file extensions to codecs. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Tag]Codec
	byExt  map[string]Tag
	order  []Tag
}

// NewRegistry returns a registry holding the built-in JPEG, PNG, WebP and BMP codecs.
func NewRegistry() *Registry {
	r := &Registry{
		codecs: make(map[Tag]Codec),
		byExt:  make(map[string]Tag),
	}
	for _, c := range []Codec{jpegCodec{}, pngCodec{}, webpCodec{}, bmpCodec{}} {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a codec. Tags and extensions must not collide with ones
// already registered.
func (r *Registry) Register(c Codec) error {
	tag := c.Tag()
	if tag == "" {
		return fmt.Errorf("register codec %q: empty tag", c.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codecs[tag]; ok {
		return fmt.Errorf("register codec %q: tag %s already registered", c.Name(), tag)
	}
	exts := c.Extensions()
	if len(exts) == 0 {
		return fmt.Errorf("register codec %q: no extensions", c.Name())
	}
	for _, ext := range exts {
		if owner, ok := r.byExt[normalizeExt(ext)]; ok {
			return fmt.Errorf("register codec %q: extension %s already owned by %s", c.Name(), ext, owner)
		}
	}

	r.codecs[tag] = c
	r.order = append(r.order, tag)
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = tag
	}
	return nil
}

// Codec returns the codec registered under tag.
func (r *Registry) Codec(tag Tag) (Codec, error) {
	r.mu.RLock()
	c, ok := r.codecs[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", imgerr.ErrUnsupportedFormat, tag)
	}
	return c, nil
}

// Lookup accepts a tag or an extension such as "jpg", ".JPEG" or "webp".
func (r *Registry) Lookup(name string) (Codec, error) {
	key := normalizeExt(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.codecs[Tag(key)]; ok {
		return c, nil
	}
	if tag, ok := r.byExt[key]; ok {
		return r.codecs[tag], nil
	}
	return nil, fmt.Errorf("%w: %q", imgerr.ErrUnsupportedFormat, name)
}

// ForPath resolves the codec from the file extension of path.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", imgerr.ErrUnsupportedFormat, filepath.Base(path))
	}
	return r.Lookup(ext)
}

// Supports reports whether path carries an extension owned by a registered codec.
func (r *Registry) Supports(path string) bool {
	_, err := r.ForPath(path)
	return err == nil
}

// Detect resolves the codec from the leading bytes of an encoded image.
// Registered matchers are consulted before the built-in signatures so an
// external format may share a prefix with one of them.
func (r *Registry) Detect(data []byte) (Codec, error) {
	r.mu.RLock()
	for _, tag := range r.order {
		if m, ok := r.codecs[tag].(Matcher); ok && m.Match(data) {
			c := r.codecs[tag]
			r.mu.RUnlock()
			return c, nil
		}
	}
	r.mu.RUnlock()

	kind, err := imgutil.DetectHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imgerr.ErrUnsupportedFormat, err)
	}
	if kind == imgutil.KindUnknown {
		return nil, fmt.Errorf("%w: unrecognised header", imgerr.ErrUnsupportedFormat)
	}
	return r.Codec(Tag(kind.String()))
}

// Codecs lists registered codecs in registration order.
func (r *Registry) Codecs() []Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Codec, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.codecs[tag])
	}
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
