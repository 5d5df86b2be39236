package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mazzlabs/sentinel/internal/bridge"
)

func replCmd() *cli.Command {
	var screenFile string

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive inference session",
		Flags: append(append(commonModelFlags(), samplingFlags()...),
			&cli.StringFlag{
				Name:        "screen-file",
				Usage:       "initial screen description file",
				Destination: &screenFile,
			},
		),
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

			screen := ""
			if screenFile != "" {
				data, err := os.ReadFile(screenFile)
				if err != nil {
					return fmt.Errorf("read screen file: %w", err)
				}
				screen = string(data)
			}

			fmt.Println("sentinel repl. Type a query, or :help for commands.")
			for {
				line, err := readInteractiveLine("sentinel> ")
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if strings.HasPrefix(line, ":") {
					if quit := replMeta(br, line, &screen); quit {
						return nil
					}
					continue
				}
				fmt.Println(br.Infer(line, screen))
			}
		},
	}
}

// replMeta handles colon commands. Reports whether the session should end.
func replMeta(br *bridge.Bridge, line string, screen *string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit", ":exit":
		return true
	case ":help":
		fmt.Println(`commands:
  :screen <path>      load the screen description from a file
  :screen-clear       clear the screen description
  :params <t> <p> <n> set temperature, top-p and max tokens
  :info               print model metadata
  :help               show this help
  :quit               exit`)
	case ":screen":
		if len(fields) != 2 {
			fmt.Println("usage: :screen <path>")
			return false
		}
		data, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		*screen = string(data)
		fmt.Printf("screen context set (%d bytes)\n", len(*screen))
	case ":screen-clear":
		*screen = ""
		fmt.Println("screen context cleared")
	case ":params":
		if len(fields) != 4 {
			fmt.Println("usage: :params <temperature> <top-p> <max-tokens>")
			return false
		}
		t, err1 := strconv.ParseFloat(fields[1], 32)
		p, err2 := strconv.ParseFloat(fields[2], 32)
		n, err3 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil || err3 != nil {
			fmt.Println("usage: :params <temperature> <top-p> <max-tokens>")
			return false
		}
		br.SetInferenceParams(float32(t), float32(p), n)
		fmt.Println("params updated")
	case ":info":
		fmt.Println(br.GetModelInfo())
	default:
		fmt.Printf("unknown command %s (try :help)\n", fields[0])
	}
	return false
}
