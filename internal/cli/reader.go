package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled reports that a prompt was abandoned because its
// context ended before the user answered.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	text string
	err  error
}

// LineReader hands out lines from an underlying reader while honoring
// context cancellation. A single goroutine owns the underlying reader,
// so a caller whose context ends gets control back immediately; a line
// that arrives afterwards is kept for the next call rather than lost.
type LineReader struct {
	scanner *bufio.Scanner
	lines   chan lineResult
	once    sync.Once
}

// NewLineReader wraps r for context-aware line reading.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("cli: nil input reader")
	}
	return &LineReader{
		scanner: bufio.NewScanner(r),
		lines:   make(chan lineResult, 1),
	}
}

func (lr *LineReader) pump() {
	for lr.scanner.Scan() {
		lr.lines <- lineResult{text: strings.TrimSpace(lr.scanner.Text())}
	}
	err := lr.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	// Buffered send: the final result is never dropped even when no
	// ReadLine is waiting, so the goroutine always exits.
	lr.lines <- lineResult{err: err}
	close(lr.lines)
}

// ReadLine returns the next line with surrounding whitespace removed.
// It returns ErrInputCancelled as soon as ctx ends; exhausted input
// surfaces io.EOF.
func (lr *LineReader) ReadLine(ctx context.Context) (string, error) {
	lr.once.Do(func() { go lr.pump() })

	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
