package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RotatingWriter is a file writer that moves the log aside once it grows
// past maxSize. Archives are named <basename>.YYYYMMDD-HHMMSS next to the log.
type RotatingWriter struct {
	mu         sync.Mutex
	f          *os.File
	path       string
	maxSize    int64
	approxSize int64
	now        func() time.Time
}

// NewRotatingWriter opens path for appending, rotating first if the
// existing file already exceeds maxSize
func NewRotatingWriter(path string, maxSize int64) (*RotatingWriter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max log size must be positive, got %d", maxSize)
	}

	w := &RotatingWriter{
		path:    path,
		maxSize: maxSize,
		now:     time.Now,
	}

	if err := w.openLocked(); err != nil {
		return nil, err
	}
	if w.approxSize >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}

	if w.approxSize > 0 && w.approxSize+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.approxSize += int64(n)
	return n, err
}

// Close closes the current file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.f = f
	w.approxSize = fi.Size()
	return nil
}

func (w *RotatingWriter) rotateLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}

	archive := fmt.Sprintf("%s.%s", w.path, w.now().Format("20060102-150405"))
	if _, err := os.Stat(archive); err == nil {
		// several rotations within one second
		archive = fmt.Sprintf("%s.%d", archive, w.now().UnixNano())
	}
	if err := os.Rename(w.path, archive); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("archiving log file: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating new log file: %w", err)
	}

	w.f = f
	w.approxSize = 0
	return nil
}
