package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mazzlabs/sentinel/internal/bridge"
)

func inferCmd() *cli.Command {
	var (
		query       string
		screen      string
		screenFile  string
		callGrammar string
		noGrammar   bool
	)

	return &cli.Command{
		Name:      "infer",
		Usage:     "Run one inference call and print the JSON action",
		ArgsUsage: "[query]",
		Flags: append(append(commonModelFlags(), samplingFlags()...),
			&cli.StringFlag{
				Name:        "query",
				Aliases:     []string{"q"},
				Usage:       "user instruction (also accepted as positional argument)",
				Destination: &query,
			},
			&cli.StringFlag{
				Name:        "screen",
				Aliases:     []string{"s"},
				Usage:       "textual screen description",
				Destination: &screen,
			},
			&cli.StringFlag{
				Name:        "screen-file",
				Usage:       "read the screen description from a file",
				Destination: &screenFile,
			},
			&cli.StringFlag{
				Name:        "call-grammar",
				Usage:       "load a grammar ad hoc for this call",
				Destination: &callGrammar,
			},
			&cli.BoolFlag{
				Name:        "no-grammar",
				Usage:       "force unconstrained sampling",
				Destination: &noGrammar,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyConfig(cmd, LoadConfig())
			log := newLogger(os.Stderr)

			if query == "" {
				query = strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			}
			if query == "" {
				return fmt.Errorf("a query is required (--query or positional)")
			}
			if modelPath == "" {
				return fmt.Errorf("--model is required")
			}
			if screenFile != "" {
				data, err := os.ReadFile(screenFile)
				if err != nil {
					return fmt.Errorf("read screen file: %w", err)
				}
				screen = string(data)
			}

			eng, err := newEngine(log)
			if err != nil {
				return err
			}
			br := bridge.New(eng, log)
			if !br.InitModel(modelPath, grammarPath) {
				return fmt.Errorf("failed to load model %s", modelPath)
			}
			defer br.ReleaseModel()

			var out string
			switch {
			case callGrammar != "":
				out = br.InferWithGrammar(query, screen, callGrammar)
			case noGrammar:
				out = br.InferWithoutGrammar(query, screen)
			default:
				out = br.Infer(query, screen)
			}
			fmt.Println(out)
			return nil
		},
	}
}
