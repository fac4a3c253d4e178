package main

import (
	"context"
	"os"
	"os/signal"

	"todolist-backend/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, cli.NewRootCommand(cli.DefaultBackend))
	stop()
	os.Exit(code)
}
