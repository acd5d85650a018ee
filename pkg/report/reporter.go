package report

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Reporter writes result lines so that concurrent callers never interleave
type Reporter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// New creates a Reporter writing to w
func New(w io.Writer) *Reporter {
	return &Reporter{w: bufio.NewWriter(w)}
}

// Report writes line followed by a newline and flushes it
func (r *Reporter) Report(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.w.WriteString(line); err != nil {
		return fmt.Errorf("writing report line: %w", err)
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing report line: %w", err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flushing report line: %w", err)
	}
	return nil
}
