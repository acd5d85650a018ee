package candidates

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// StdinTarget is the target name that reads entries from standard input
const StdinTarget = "-"

// Reader resolves command line targets into entries. A target is either
// StdinTarget, a path to a file with one entry per line, or a literal entry.
type Reader struct {
	Fs    afero.Fs
	Stdin io.Reader

	stdinOnce  sync.Once
	stdinLines []string
	stdinErr   error
}

// NewReader creates a Reader over the OS filesystem and process stdin
func NewReader() *Reader {
	return &Reader{
		Fs:    afero.NewOsFs(),
		Stdin: os.Stdin,
	}
}

// ReadTargets returns every entry named by targets. With no targets and
// stdinIfNone set, entries are read from stdin.
func (r *Reader) ReadTargets(targets []string, stdinIfNone bool) ([]string, error) {
	if len(targets) == 0 {
		if !stdinIfNone {
			return nil, nil
		}
		return r.readStdin()
	}

	var entries []string
	for _, target := range targets {
		if target == StdinTarget {
			lines, err := r.readStdin()
			if err != nil {
				return nil, err
			}
			entries = append(entries, lines...)
			continue
		}

		lines, isFile, err := r.readFile(target)
		if err != nil {
			return nil, err
		}
		if isFile {
			entries = append(entries, lines...)
			continue
		}

		if target != "" {
			entries = append(entries, target)
		}
	}
	return entries, nil
}

// readFile reads target as a file. isFile is false when no regular file
// exists at that path, in which case the target is a literal.
func (r *Reader) readFile(target string) (lines []string, isFile bool, err error) {
	fi, err := r.Fs.Stat(target)
	if err != nil || fi.IsDir() {
		return nil, false, nil
	}

	f, err := r.Fs.Open(target)
	if err != nil {
		return nil, true, fmt.Errorf("opening %s: %w", target, err)
	}
	defer f.Close()

	lines, err = readLines(f)
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", target, err)
	}
	return lines, true, nil
}

func (r *Reader) readStdin() ([]string, error) {
	r.stdinOnce.Do(func() {
		if r.Stdin == nil {
			return
		}
		r.stdinLines, r.stdinErr = readLines(r.Stdin)
		if r.stdinErr != nil {
			r.stdinErr = fmt.Errorf("reading stdin: %w", r.stdinErr)
		}
	})
	return r.stdinLines, r.stdinErr
}

func readLines(in io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		// ScanLines drops the line ending only; passwords may start or end with spaces
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
