package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/roblaszczak/infra-cli/pkg/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(newApp(prompt.TerminalPrompter{}))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code := 1

		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		if exitErr == nil || exitErr.err != nil {
			pterm.Error.Println(err)
		}

		stop()
		os.Exit(code)
	}
}
