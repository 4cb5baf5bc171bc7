// Command coursebot parses course command sentences and sends coursework
// reminders from Canvas over Zulip.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/barun-bash/coursebot/internal/cli"
)

func main() {
	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled):
		cli.Cancelled(os.Stderr)
	case !errors.Is(err, errReported):
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
	}
	os.Exit(1)
}
