package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazySink_OpensOnFirstWrite(t *testing.T) {
	opens := 0
	inner := NewBufferSink()
	sink := NewLazySink(func() (Sink, error) {
		opens++
		return inner, nil
	})

	assert.False(t, sink.Opened())

	called := false
	sink.OnDrained(func() { called = true })
	assert.True(t, called)
	assert.False(t, sink.Opened())

	_, err := sink.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = sink.Write([]byte("def"))
	require.NoError(t, err)

	assert.True(t, sink.Opened())
	assert.Equal(t, 1, opens)

	require.NoError(t, sink.Close())
	assert.Equal(t, []byte("abcdef"), inner.Bytes())
	assert.ErrorIs(t, sink.Close(), ErrSinkClosed)
}

func TestLazySink_CloseOpensEmpty(t *testing.T) {
	inner := NewBufferSink()
	sink := NewLazySink(func() (Sink, error) { return inner, nil })

	require.NoError(t, sink.Close())
	assert.True(t, sink.Opened())
	assert.True(t, inner.Closed())
}

func TestLazySink_DiscardNeverOpens(t *testing.T) {
	opened := false
	sink := NewLazySink(func() (Sink, error) {
		opened = true
		return NewBufferSink(), nil
	})

	require.NoError(t, sink.Discard())
	assert.False(t, opened)
}

func TestLazySink_DiscardClosesOpened(t *testing.T) {
	inner := NewBufferSink()
	sink := NewLazySink(func() (Sink, error) { return inner, nil })

	_, err := sink.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, sink.Discard())
	assert.True(t, inner.Closed())
}

func TestLazySink_OpenError(t *testing.T) {
	boom := errors.New("permission denied")
	opens := 0
	sink := NewLazySink(func() (Sink, error) {
		opens++
		return nil, boom
	})

	_, err := sink.Write([]byte("x"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, sink.Close(), boom)
	assert.Equal(t, 1, opens)
	assert.False(t, sink.Opened())
	assert.NoError(t, sink.Discard())
}

func TestLazySink_OpenErrorWithTypedNil(t *testing.T) {
	boom := errors.New("create failed")
	sink := NewLazySink(func() (Sink, error) {
		var ws *WriterSink
		return ws, boom
	})

	_, err := sink.Write([]byte("x"))
	require.ErrorIs(t, err, boom)
	assert.False(t, sink.Opened())
	assert.NoError(t, sink.Discard())
}
