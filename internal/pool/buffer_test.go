package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkPool(t *testing.T) {
	p := NewChunkPool()
	require.NotNil(t, p)
	assert.NotNil(t, p.small)
	assert.NotNil(t, p.medium)
	assert.NotNil(t, p.large)
}

func TestChunkPool_Get(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{name: "empty", size: 0, wantCap: SmallChunkSize},
		{name: "small", size: 100, wantCap: SmallChunkSize},
		{name: "small boundary", size: SmallChunkSize, wantCap: SmallChunkSize},
		{name: "medium", size: SmallChunkSize + 1, wantCap: MediumChunkSize},
		{name: "large", size: MediumChunkSize + 1, wantCap: LargeChunkSize},
		{name: "oversized", size: LargeChunkSize + 1, wantCap: LargeChunkSize + 1},
	}

	p := NewChunkPool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := p.Get(tt.size)
			assert.Len(t, buf, tt.size)
			assert.Equal(t, tt.wantCap, cap(buf))
			p.Put(buf)
		})
	}
}

func TestChunkPool_PutRestoresCapacity(t *testing.T) {
	p := NewChunkPool()

	buf := p.Get(10)
	p.Put(buf[:3])

	again := p.Get(MediumChunkSize / 2)
	assert.Len(t, again, MediumChunkSize/2)
	p.Put(again)
}

func TestChunkPool_PutIgnoresForeignSlices(t *testing.T) {
	p := NewChunkPool()
	assert.NotPanics(t, func() {
		p.Put(make([]byte, 7))
		p.Put(nil)
	})
}

func TestCopy(t *testing.T) {
	data := []byte("chunked transfer")
	buf := Copy(data)
	assert.Equal(t, data, buf)

	data[0] = 'C'
	assert.Equal(t, byte('c'), buf[0], "copy must not alias the input")
	Put(buf)
}

func TestGlobalGetPut(t *testing.T) {
	buf := Get(MediumChunkSize)
	assert.Len(t, buf, MediumChunkSize)
	Put(buf)
}
