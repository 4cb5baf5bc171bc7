package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler creates a context that cancels on first Ctrl+C.
// Second Ctrl+C calls os.Exit(1). Returns the cancellable context.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}
		// Second signal: hard exit.
		<-sigCh
		os.Exit(1)
	}()

	return ctx, cancel
}

// Cancelled prints a cancellation message to the writer.
func Cancelled(out io.Writer) {
	fmt.Fprintln(out, Error("Cancelled."))
}
