// Package resourcebuffer gives the parser a single contiguous view over
// module bytes, whether they came from a file on disk or were handed to the
// embedder as an in-memory byte slice (spec.md §4.7, grounded on
// original_source/crates/resource-buffer/src/lib.rs).
package resourcebuffer

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// ResourceBuffer exposes module bytes as a single contiguous slice,
// regardless of their origin. Its lifetime invariant matches spec.md §5:
// the buffer must outlive any parsed IR that still references it
// indirectly (none does once parsing completes, see internal/ir).
type ResourceBuffer struct {
	data   []byte
	mmaped bool
	close  func() error
}

// FromBytes wraps an already-owned in-memory byte slice. No copy is made;
// the caller must not mutate b afterwards.
func FromBytes(b []byte) *ResourceBuffer {
	return &ResourceBuffer{data: b}
}

// FromFile opens path on fs and returns a ResourceBuffer over its contents.
// When fs is backed by the real filesystem (afero.OsFs), the file is
// memory-mapped read-only via golang.org/x/sys/unix so that large modules
// are not copied into the Go heap; otherwise (in-memory filesystems used by
// tests, e.g. afero.MemMapFs) the bytes are read directly.
func FromFile(fs afero.Fs, path string) (*ResourceBuffer, error) {
	if _, ok := fs.(*afero.OsFs); ok {
		return mmapFile(path)
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resourcebuffer: open %s", path)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "resourcebuffer: read %s", path)
	}
	return &ResourceBuffer{data: data}, nil
}

func mmapFile(path string) (*ResourceBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resourcebuffer: open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "resourcebuffer: stat %s", path)
	}
	size := st.Size()
	if size == 0 {
		return &ResourceBuffer{data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		// Not every filesystem (e.g. some overlayfs/tmpfs configurations,
		// or a file shorter than a page) supports mmap; fall back to a
		// plain read rather than failing module loading.
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "resourcebuffer: fallback read %s after mmap error %v", path, err)
		}
		return &ResourceBuffer{data: data}, nil
	}
	return &ResourceBuffer{
		data:   data,
		mmaped: true,
		close:  func() error { return unix.Munmap(data) },
	}, nil
}

// Bytes returns the buffer's contents. The returned slice is valid until
// Close is called.
func (b *ResourceBuffer) Bytes() []byte { return b.data }

// Len returns the buffer's length in bytes.
func (b *ResourceBuffer) Len() int { return len(b.data) }

// Close releases any OS-level mapping. Closing an in-memory buffer is a
// no-op. Close must not be called while any parser or IR still holds a
// reference into Bytes().
func (b *ResourceBuffer) Close() error {
	if b.close == nil {
		return nil
	}
	c := b.close
	b.close = nil
	return c()
}
