package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mazzlabs/sentinel/internal/bridge"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Load a model and print its metadata as JSON",
		Flags: commonModelFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyConfig(cmd, LoadConfig())
			log := newLogger(os.Stderr)

			if modelPath == "" {
				return fmt.Errorf("--model is required")
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

			fmt.Println(br.GetModelInfo())
			return nil
		},
	}
}
