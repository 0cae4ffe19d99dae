package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	app := newApplication()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.connect(); err != nil {
		app.logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		app.logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  granary balance <id>              show an account balance
  granary send <from> <to> <amount> transfer between accounts
  granary harvest <id>              claim the daily dole
  granary top                       show the leaderboard`)
}
