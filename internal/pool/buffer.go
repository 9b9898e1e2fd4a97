package pool

import (
	"sync"
)

const (
	// SmallChunkSize is the size of small chunks (4KB)
	SmallChunkSize = 4 * 1024
	// MediumChunkSize is the size of medium chunks, the default read size (64KB)
	MediumChunkSize = 64 * 1024
	// LargeChunkSize is the size of large chunks (1MB)
	LargeChunkSize = 1024 * 1024
)

// ChunkPool hands out byte slices from three size classes.
// Requests larger than LargeChunkSize are allocated and never pooled.
type ChunkPool struct {
	small  *sync.Pool
	medium *sync.Pool
	large  *sync.Pool
}

// NewChunkPool creates a chunk pool with the default size classes.
func NewChunkPool() *ChunkPool {
	return &ChunkPool{
		small:  newClass(SmallChunkSize),
		medium: newClass(MediumChunkSize),
		large:  newClass(LargeChunkSize),
	}
}

func newClass(size int) *sync.Pool {
	return &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, size)
			return &buf
		},
	}
}

// Get returns a chunk of exactly size bytes backed by the smallest class that fits.
// The caller must return it with Put and must not use it afterwards.
func (p *ChunkPool) Get(size int) []byte {
	class := p.classFor(size)
	if class == nil {
		return make([]byte, size)
	}
	bufPtr := class.Get().(*[]byte)
	return (*bufPtr)[:size]
}

// Put returns a chunk obtained from Get to its class.
// Chunks whose capacity matches no class are dropped.
func (p *ChunkPool) Put(buf []byte) {
	var class *sync.Pool
	switch cap(buf) {
	case SmallChunkSize:
		class = p.small
	case MediumChunkSize:
		class = p.medium
	case LargeChunkSize:
		class = p.large
	default:
		return
	}
	buf = buf[:cap(buf)]
	class.Put(&buf)
}

// Copy returns a pooled chunk holding a copy of data.
func (p *ChunkPool) Copy(data []byte) []byte {
	buf := p.Get(len(data))
	copy(buf, data)
	return buf
}

func (p *ChunkPool) classFor(size int) *sync.Pool {
	switch {
	case size <= SmallChunkSize:
		return p.small
	case size <= MediumChunkSize:
		return p.medium
	case size <= LargeChunkSize:
		return p.large
	default:
		return nil
	}
}

// Global chunk pool shared by the module.
var globalChunkPool = NewChunkPool()

// Get returns a chunk of size bytes from the global pool.
func Get(size int) []byte {
	return globalChunkPool.Get(size)
}

// Put returns a chunk to the global pool.
func Put(buf []byte) {
	globalChunkPool.Put(buf)
}

// Copy returns a global pooled copy of data.
func Copy(data []byte) []byte {
	return globalChunkPool.Copy(data)
}
