package stream

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileSource(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "data/input.bin", []byte("0123456789"), 0o644))

	src, err := OpenFileSource(fs, "data/input.bin")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(10), src.Len())
	assert.Contains(t, src.Name(), "input.bin")

	got, err := src.Slice(3, 4)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(got))

	_, err = src.Slice(8, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestOpenFileSource_Errors(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("dir", 0o755))

	_, err := OpenFileSource(fs, "missing.bin")
	assert.Error(t, err)

	_, err = OpenFileSource(fs, "dir")
	assert.Error(t, err)
}

func TestOpenFileSink(t *testing.T) {
	fs := memfs.New()

	s, err := OpenFileSink(fs, "out/nested/result.bin", 4)
	require.NoError(t, err)

	for _, chunk := range []string{"ab", "cdef", "gh"} {
		_, err := s.Write([]byte(chunk))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	data, err := util.ReadFile(fs, "out/nested/result.bin")
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(data))
}
