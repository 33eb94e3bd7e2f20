package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads trimmed lines and gives up when its context is canceled.
type LineReader struct {
	lines chan lineResult
	// pending is set while a read goroutine is outstanding.
	pending bool
	scanner *bufio.Scanner
}

type lineResult struct {
	err  error
	line string
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		scanner: bufio.NewScanner(r),
		lines:   make(chan lineResult, 1),
	}
}

// ReadLine returns the next line with surrounding whitespace removed. It
// returns io.EOF at end of input and ErrInputCancelled when ctx ends first;
// a read abandoned that way is delivered by the next call.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if !r.pending {
		r.pending = true
		go func() {
			if r.scanner.Scan() {
				r.lines <- lineResult{line: r.scanner.Text()}
				return
			}
			err := r.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			r.lines <- lineResult{err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-r.lines:
		r.pending = false
		return strings.TrimSpace(res.line), res.err
	}
}

// ForEachLine calls fn for every non-blank line until EOF, an error, or cancellation.
func (r *LineReader) ForEachLine(ctx context.Context, fn func(line string) error) error {
	for {
		line, err := r.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}
