package stream

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// FileSource is a Source backed by a file on a billy filesystem.
type FileSource struct {
	*ReaderAtSource
	file billy.File
}

// OpenFileSource opens path on fs for slicing.
func OpenFileSource(fs billy.Filesystem, path string) (*FileSource, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stream: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stream: %s is a directory", path)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: open %s: %w", path, err)
	}

	return &FileSource{
		ReaderAtSource: NewReaderAtSource(f, info.Size()),
		file:           f,
	}, nil
}

// Name returns the path the source was opened with.
func (s *FileSource) Name() string {
	return s.file.Name()
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// OpenFileSink creates or truncates path on fs, creating parent
// directories as needed, and returns a WriterSink that writes to it.
// Closing the sink closes the file.
func OpenFileSink(fs billy.Filesystem, path string, highWaterMark int) (*WriterSink, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("stream: create directory %s: %w", dir, err)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("stream: create %s: %w", path, err)
	}
	return NewWriterSink(f, highWaterMark), nil
}
