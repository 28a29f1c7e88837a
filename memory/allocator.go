/*
DESCRIPTION
  allocator.go provides the capability-style allocator handle used for the
  three growable resources named in spec section 5: the unencapsulated NAL
  buffer, the chunk-descriptor array, and command buffers. The reference
  implementation (LdcMemoryAllocator in the original C sources) carries
  alloc/realloc/free function pointers plus an opaque context; this is the
  same shape expressed as a Go interface.

AUTHORS
  LCEVC enhancement core contributors.
*/

// Package memory provides the allocator capability consumed by the
// enhancement decoder core for its growable buffers.
package memory

// Allocator is the capability passed to frame-configuration and
// command-buffer constructors. Implementations must return a slice with
// at least the requested length; the core never reads beyond the length
// it requested.
type Allocator interface {
	// Alloc returns a new byte slice of exactly n bytes.
	Alloc(n int) []byte

	// Realloc grows (or shrinks) buf to n bytes, preserving the existing
	// contents up to min(len(buf), n). Implementations may return a new
	// backing array; callers must not retain buf after calling Realloc.
	Realloc(buf []byte, n int) []byte

	// Free releases buf. Implementations backed by the garbage collector
	// may treat this as a no-op.
	Free(buf []byte)
}

// Default is a Go-GC-backed allocator; Free is a no-op since the garbage
// collector reclaims unreferenced slices. This is the allocator used
// whenever a caller does not supply its own, matching the teacher's
// pattern of providing a zero-value-friendly default rather than
// requiring every caller to wire a capability explicitly.
type Default struct{}

// Alloc implements Allocator.
func (Default) Alloc(n int) []byte { return make([]byte, n) }

// Realloc implements Allocator.
func (Default) Realloc(buf []byte, n int) []byte {
	if n <= cap(buf) {
		out := buf[:n]
		return out
	}
	out := make([]byte, n)
	copy(out, buf)
	return out
}

// Free implements Allocator.
func (Default) Free([]byte) {}
