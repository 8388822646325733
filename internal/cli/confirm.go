package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Confirmer asks yes/no questions on the terminal. Prompts respect
// context cancellation, so an interrupt aborts an outstanding read.
type Confirmer struct {
	reader *LineReader
	writer io.Writer
}

// NewConfirmer creates a Confirmer reading answers from input and
// writing prompts to output.
func NewConfirmer(input io.Reader, output io.Writer) *Confirmer {
	return &Confirmer{
		reader: NewLineReader(input),
		writer: output,
	}
}

// Confirm asks question and waits for a yes/no answer. Declining is
// the default: an empty answer means no, and only "y" or "yes"
// confirms. Unrecognized answers re-prompt.
func (c *Confirmer) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		if _, err := fmt.Fprintf(c.writer, "%s [y/N]: ", FormatPrompt(question)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := c.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, fmt.Errorf("input terminated")
			}
			return false, err
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}

		if _, err := fmt.Fprintln(c.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
