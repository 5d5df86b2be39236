package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	// Registers the in-memory development backend.
	_ "github.com/mazzlabs/sentinel/internal/llm/mock"
)

func main() {
	app := &cli.Command{
		Name:  "sentinel",
		Usage: "On-device screen-action inference CLI",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inferCmd(),
			replCmd(),
			serveCmd(),
			infoCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
