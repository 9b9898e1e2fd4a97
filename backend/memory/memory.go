// Package memory provides an in-memory Backend.
//
// It mirrors the multipart contract of S3-compatible stores closely enough
// for round-trip tests and local runs: sessions are isolated until completion,
// completion requires the exact etags handed out for each part, and ranged
// reads are served from the assembled object.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Object is a stored object.
type Object struct {
	Data     []byte
	ETag     string
	Metadata xfertypes.ObjectMetadata
}

type part struct {
	data []byte
	etag string
}

type session struct {
	target   xfertypes.Target
	metadata xfertypes.ObjectMetadata
	parts    map[int]part
}

// Backend is a concurrency-safe in-memory object store.
type Backend struct {
	mu       sync.RWMutex
	objects  map[xfertypes.Target]Object
	sessions map[string]*session
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{
		objects:  make(map[xfertypes.Target]Object),
		sessions: make(map[string]*session),
	}
}

// PutObject stores data under target, replacing any existing object.
func (b *Backend) PutObject(target xfertypes.Target, data []byte, meta xfertypes.ObjectMetadata) {
	stored := bytes.Clone(data)
	if stored == nil {
		stored = []byte{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[target] = Object{Data: stored, ETag: etagOf(stored), Metadata: meta}
}

// Object returns a copy of the object stored under target.
func (b *Backend) Object(target xfertypes.Target) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[target]
	if !ok {
		return Object{}, false
	}
	obj.Data = bytes.Clone(obj.Data)
	return obj, true
}

// OpenSessions returns the number of multipart sessions neither completed nor aborted.
func (b *Backend) OpenSessions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// ProbeSize implements backend.Backend.
func (b *Backend) ProbeSize(ctx context.Context, target xfertypes.Target) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[target]
	if !ok {
		return 0, fmt.Errorf("memory: %s: %w", target, errors.ErrNotFound)
	}
	return int64(len(obj.Data)), nil
}

// InitiateMultipart implements backend.Backend.
func (b *Backend) InitiateMultipart(
	ctx context.Context,
	target xfertypes.Target,
	meta xfertypes.ObjectMetadata,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[id] = &session{
		target:   target,
		metadata: meta,
		parts:    make(map[int]part),
	}
	return id, nil
}

// UploadPart implements backend.Backend.
// Re-uploading an index replaces the earlier part and issues a new etag.
func (b *Backend) UploadPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	index int,
	data []byte,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if index < 1 {
		return "", fmt.Errorf("memory: invalid part number %d", index)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.lookup(target, sessionID)
	if err != nil {
		return "", err
	}

	stored := bytes.Clone(data)
	etag := etagOf(stored)
	s.parts[index] = part{data: stored, etag: etag}
	return etag, nil
}

// CompleteMultipart implements backend.Backend.
// The manifest must list parts 1..n in order with the etags returned by UploadPart.
func (b *Backend) CompleteMultipart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.CompletedPart,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.lookup(target, sessionID)
	if err != nil {
		return err
	}

	var assembled bytes.Buffer
	for i, p := range parts {
		if p.Index != i+1 {
			return fmt.Errorf("memory: manifest entry %d has part number %d", i+1, p.Index)
		}
		uploaded, ok := s.parts[p.Index]
		if !ok {
			return fmt.Errorf("memory: part %d was never uploaded", p.Index)
		}
		if uploaded.etag != p.ETag {
			return fmt.Errorf("memory: part %d etag mismatch: got %s, want %s", p.Index, p.ETag, uploaded.etag)
		}
		assembled.Write(uploaded.data)
	}

	data := assembled.Bytes()
	if data == nil {
		data = []byte{}
	}
	b.objects[target] = Object{Data: data, ETag: etagOf(data), Metadata: s.metadata}
	delete(b.sessions, sessionID)
	return nil
}

// AbortMultipart implements backend.Backend.
// Aborting an unknown or finished session is a no-op.
func (b *Backend) AbortMultipart(ctx context.Context, target xfertypes.Target, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[sessionID]; ok && s.target == target {
		delete(b.sessions, sessionID)
	}
	return nil
}

// FetchRange implements backend.Backend.
func (b *Backend) FetchRange(
	ctx context.Context,
	target xfertypes.Target,
	start, endInclusive int64,
) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[target]
	if !ok {
		return nil, fmt.Errorf("memory: %s: %w", target, errors.ErrNotFound)
	}

	size := int64(len(obj.Data))
	if start < 0 || start > endInclusive || start >= size {
		return nil, fmt.Errorf("memory: range %d-%d not satisfiable for size %d", start, endInclusive, size)
	}
	end := min(endInclusive+1, size)

	// Stored objects are never mutated in place, so the slice can be shared.
	return io.NopCloser(bytes.NewReader(obj.Data[start:end])), nil
}

func (b *Backend) lookup(target xfertypes.Target, sessionID string) (*session, error) {
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("memory: no such upload %q", sessionID)
	}
	if s.target != target {
		return nil, fmt.Errorf("memory: upload %q belongs to %s", sessionID, s.target)
	}
	return s, nil
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

var _ backend.Backend = (*Backend)(nil)
