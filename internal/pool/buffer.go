// Package pool provides memory management optimizations.
// Part buffers are recycled between flushes so that a long run of
// multi-megabyte parts does not allocate a fresh buffer per part.
package pool

import (
	"bytes"
	"sync"
)

// retainFactor bounds how far a buffer may have grown past the part size
// and still be returned to the pool.
const retainFactor = 4

// BufferPool manages reusable part buffers sized for one upload part.
type BufferPool struct {
	pool *sync.Pool
	size int
}

// NewBufferPool creates a pool whose buffers start with size bytes of capacity.
func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool = &sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, bp.size))
		},
	}
	return bp
}

// Get returns an empty buffer from the pool.
// The caller is responsible for calling Put once the buffer's bytes are no longer referenced.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool.
// Buffers that grew far beyond the part size are dropped to avoid memory bloat.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > bp.size*retainFactor {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}

// Size returns the initial capacity of new buffers.
func (bp *BufferPool) Size() int {
	return bp.size
}
