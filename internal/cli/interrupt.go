package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// InterruptHandler turns SIGINT and SIGTERM into context cancellation,
// announcing the shutdown once on the configured writer.
type InterruptHandler struct {
	writer      io.Writer
	interrupted atomic.Bool
}

// NewInterruptHandler writes shutdown notices to writer, defaulting to
// stdout.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts returns a child context that is canceled on the first
// interrupt. The watcher goroutine exits when either the signal fires or
// the parent context ends.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			if h.interrupted.CompareAndSwap(false, true) {
				h.showInterruptMessage()
			}
			cancel()
		case <-ctx.Done():
			// Normal shutdown; nothing to announce
		}
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Interrupted!") +
		"\n" + FormatInfo("Completed writes are already in your ledger. See you later! 🧮") + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Shutdown is underway; stderr is the only fallback.
		fmt.Fprintf(os.Stderr, "interrupt notice lost: %v\n", err)
	}
}

// WasInterrupted reports whether an interrupt signal arrived.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.interrupted.Load()
}
