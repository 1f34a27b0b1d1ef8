package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimburion/asyncrepo/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(cli.CommandOptions{
		Name:        "asyncrepo",
		Description: "Stream, page and count rows of a SQL table through the reactive repository",
		EnvPrefix:   cli.DefaultEnvPrefix,
	})
	cli.Execute(ctx, cmd)
}
