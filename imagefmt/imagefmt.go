// Package imagefmt implements the image opener (C3): resolving a flat
// sector image file to a populated layout.Arena by trying a format
// handler's header/sidecar/geometry probes in turn. See spec.md §4.3
// and §6.
package imagefmt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"sdimage/layout"
)

// ErrNotThisFormat signals that a handler's probes did not recognise the
// image; the caller should try the next handler or the bare catalogue.
var ErrNotThisFormat = errors.New("imagefmt: not this format")

// ErrBadImage re-exports layout.ErrBadImage: a fatal structural-invariant
// violation discovered while building the arena for a recognised format.
var ErrBadImage = layout.ErrBadImage

// File is the file I/O collaborator from spec.md §6: size, seek, read,
// write, close, all synchronous and byte-granular.
type File interface {
	Size() (int64, error)
	Seek(off int64) error
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Close() error
}

// osFile adapts *os.File to the File collaborator interface.
type osFile struct {
	f *os.File
}

// OpenFile opens name with the standard library and wraps it as a File.
func OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (o *osFile) Size() (int64, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (o *osFile) Seek(off int64) error {
	_, err := o.f.Seek(off, 0)
	return err
}

func (o *osFile) Read(buf []byte) (int, error)  { return o.f.Read(buf) }
func (o *osFile) Write(buf []byte) (int, error) { return o.f.Write(buf) }
func (o *osFile) Close() error                  { return o.f.Close() }

// Image is the opened result consumed by the seek/encode/decode engine
// (trackio): a finalised arena plus the envelope parameters that govern
// how sec_off translates to a byte offset in the backing file.
type Image struct {
	File File
	Arena *layout.Arena
	Env  layout.Envelope

	// Extend grows the backing file to accommodate a newly-written track
	// past the current end of file, returning the total file size after
	// padding. nil for formats that do not support growing on write.
	Extend func(img *Image) (uint64, error)
}

// Handler is one format's recognise-and-build vtable entry, per
// spec.md §6's "each supported format registers ... callbacks" and
// SPEC_FULL.md §6.1's generalisation of adapter.RegisterAdapter from
// VID/PID keys to extension-string keys.
type Handler interface {
	// Tag is this handler's sidecar config tag and registry key.
	Tag() string
	// Open runs the probes from spec.md §4.3 (header, geometry
	// disambiguation) and, on success, builds and finalises the
	// Image's arena. zones is the already-selected, already-scored
	// sidecar section's options (spec.md §4.3 step 1), or nil if no
	// sidecar section won out — in which case Open falls back to the
	// geometry catalogue and header probes. Returns ErrNotThisFormat
	// on recognised mismatch, ErrBadImage on a structural violation in
	// an otherwise-recognised image.
	Open(f File, size int64, zones []zoneParams) (*Image, error)
}

// Registry maps a file extension to the Handler responsible for it.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under ext (case-insensitive, leading dot optional).
func (r *Registry) Register(ext string, h Handler) {
	r.handlers[normaliseExt(ext)] = h
}

// Lookup returns the handler registered for ext, if any.
func (r *Registry) Lookup(ext string) (Handler, bool) {
	h, ok := r.handlers[normaliseExt(ext)]
	return h, ok
}

// Open looks up ext's handler and runs it against f, with no sidecar
// config consulted. Use OpenPath for sidecar-aware opening from a real
// file path.
func (r *Registry) Open(f File, ext string) (*Image, error) {
	h, ok := r.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for extension %q", ErrNotThisFormat, ext)
	}
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	return h.Open(f, size, nil)
}

// OpenPath opens path's handler for ext, first consulting a sidecar
// config at path+".cfg" if one exists, per spec.md §4.3 step 1.
func (r *Registry) OpenPath(path, ext string) (*Image, error) {
	h, ok := r.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for extension %q", ErrNotThisFormat, ext)
	}
	f, err := OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	zones, err := selectSidecarZones(path+".cfg", normaliseExt(ext), size)
	if err != nil {
		return nil, err
	}
	return h.Open(f, size, zones)
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Default is the registry populated by this package's format handlers'
// init() functions, mirroring the teacher's package-level
// registeredAdapters list built the same way.
var Default = NewRegistry()

// Register adds h to the Default registry under ext.
func Register(ext string, h Handler) {
	Default.Register(ext, h)
}

// Open opens f against the Default registry's handler for ext.
func Open(f File, ext string) (*Image, error) {
	return Default.Open(f, ext)
}

// OpenPath opens path against the Default registry's handler for ext.
func OpenPath(path, ext string) (*Image, error) {
	return Default.OpenPath(path, ext)
}
