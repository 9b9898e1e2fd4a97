package testutil

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func TestMockBackend_DelegatesAndRecords(t *testing.T) {
	mock, store := NewMockBackend()
	ctx := context.Background()
	target := xfertypes.Target{Bucket: "bucket", Key: "key"}

	id, err := mock.InitiateMultipart(ctx, target, xfertypes.ObjectMetadata{})
	require.NoError(t, err)
	etag, err := mock.UploadPart(ctx, target, id, 1, []byte("abc"))
	require.NoError(t, err)
	require.NoError(t, mock.CompleteMultipart(ctx, target, id, []xfertypes.CompletedPart{{Index: 1, ETag: etag}}))

	obj, ok := store.Object(target)
	require.True(t, ok)
	assert.Equal(t, "abc", string(obj.Data))

	assert.Equal(t, 1, mock.CallCount(MethodUploadPart))
	complete := mock.CallsTo(MethodCompleteMultipart)
	require.Len(t, complete, 1)
	assert.Equal(t, 1, complete[0].Parts[0].Index)
}

func TestMockBackend_ZeroValues(t *testing.T) {
	mock := &MockBackend{}
	ctx := context.Background()

	id, err := mock.InitiateMultipart(ctx, xfertypes.Target{}, xfertypes.ObjectMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "mock-session-id", id)

	etag, err := mock.UploadPart(ctx, xfertypes.Target{}, id, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, `"etag-7"`, etag)

	body, err := mock.FetchRange(ctx, xfertypes.Target{}, 0, 9)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Empty(t, data)
}

func TestBackendBuilder_PartError(t *testing.T) {
	boom := errors.New("boom")
	mock := NewBackendBuilder().WithPartError(2, boom).Build()
	ctx := context.Background()
	target := xfertypes.Target{Bucket: "bucket", Key: "key"}

	id, err := mock.InitiateMultipart(ctx, target, xfertypes.ObjectMetadata{})
	require.NoError(t, err)

	_, err = mock.UploadPart(ctx, target, id, 1, []byte("a"))
	assert.NoError(t, err)
	_, err = mock.UploadPart(ctx, target, id, 2, []byte("b"))
	assert.ErrorIs(t, err, boom)
}

func TestBackpressureSink(t *testing.T) {
	s := NewBackpressureSink(4)

	accepted, err := s.Write([]byte("ab"))
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = s.Write([]byte("cd"))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 1, s.Stalls())

	drained := make(chan struct{})
	s.OnDrained(func() { close(drained) })
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("sink never drained")
	}

	accepted, err = s.Write([]byte("e"))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Zero(t, s.WritesWhenFull())

	require.NoError(t, s.Close())
	assert.Error(t, s.Close())
	assert.Equal(t, 2, s.CloseCalls())
	assert.Equal(t, "abcde", string(s.Bytes()))
}

func TestMockProgressTracker_Monotonic(t *testing.T) {
	tracker := &MockProgressTracker{}
	tracker.Update(1, 10)
	tracker.Update(5, 10)
	assert.True(t, tracker.Monotonic())

	tracker.Update(3, 10)
	assert.False(t, tracker.Monotonic())
	assert.Len(t, tracker.Snapshot(), 3)
}

func TestGenerateRandomData_Deterministic(t *testing.T) {
	assert.Equal(t, GenerateRandomData(1024), GenerateRandomData(1024))
	assert.Len(t, GenerateRandomData(10), 10)
}

func TestFailingBody(t *testing.T) {
	boom := errors.New("reset")
	data, err := io.ReadAll(FailingBody([]byte("part"), boom))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "part", string(data))
}
