package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesSource_Slice(t *testing.T) {
	src := NewBytesSource([]byte("0123456789"))
	assert.Equal(t, int64(10), src.Len())

	tests := []struct {
		name           string
		offset, length int64
		want           string
		wantErr        bool
	}{
		{name: "head", offset: 0, length: 4, want: "0123"},
		{name: "middle", offset: 4, length: 3, want: "456"},
		{name: "tail", offset: 6, length: 4, want: "6789"},
		{name: "empty at end", offset: 10, length: 0, want: ""},
		{name: "past end", offset: 8, length: 3, wantErr: true},
		{name: "negative offset", offset: -1, length: 2, wantErr: true},
		{name: "negative length", offset: 1, length: -2, wantErr: true},
		{name: "offset beyond", offset: 11, length: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.Slice(tt.offset, tt.length)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestBytesSource_SliceIsRepeatable(t *testing.T) {
	src := NewBytesSource([]byte("abcdef"))
	first, err := src.Slice(2, 3)
	require.NoError(t, err)
	second, err := src.Slice(2, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Appending to a slice must not clobber the bytes that follow it.
	_ = append(first, 'X')
	rest, err := src.Slice(5, 1)
	require.NoError(t, err)
	assert.Equal(t, "f", string(rest))
}

func TestReaderAtSource_Slice(t *testing.T) {
	data := []byte("the quick brown fox")
	src := NewReaderAtSource(bytes.NewReader(data), int64(len(data)))

	got, err := src.Slice(4, 5)
	require.NoError(t, err)
	assert.Equal(t, "quick", string(got))

	_, err = src.Slice(15, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestReaderAtSource_ShortReader(t *testing.T) {
	// Declared size larger than the data available.
	src := NewReaderAtSource(bytes.NewReader([]byte("abc")), 10)

	_, err := src.Slice(0, 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOutOfRange))
}
