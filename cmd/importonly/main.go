// Package main provides the entry point for the importonly CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/importonly/cmd/importonly/commands"
	"github.com/Sumatoshi-tech/importonly/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()
	os.Exit(commands.ExitCode(err, os.Stderr))
}
