package main

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/mazzlabs/sentinel/internal/engine"
	"github.com/mazzlabs/sentinel/internal/llm"
	"github.com/mazzlabs/sentinel/internal/logger"
)

var (
	modelPath   string
	grammarPath string
	backendName string
	contextLen  int64
	batchSize   int64
	temperature float64
	topP        float64
	maxTokens   int64
	logLevel    string
	logFormat   string
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to model weights",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "grammar",
			Aliases:     []string{"g"},
			Usage:       "path to grammar definition",
			Destination: &grammarPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "inference backend",
			Value:       "mock",
			Destination: &backendName,
		},
		&cli.Int64Flag{
			Name:        "context",
			Aliases:     []string{"ctx", "c"},
			Usage:       "context window in tokens",
			Value:       4096,
			Destination: &contextLen,
		},
		&cli.Int64Flag{
			Name:        "batch",
			Usage:       "decode batch size",
			Value:       512,
			Destination: &batchSize,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "debug, info, warn or error",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "pretty, text or json",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func samplingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature",
			Value:       0.3,
			Destination: &temperature,
		},
		&cli.FloatFlag{
			Name:        "top-p",
			Aliases:     []string{"top_p"},
			Usage:       "nucleus sampling probability mass",
			Value:       0.9,
			Destination: &topP,
		},
		&cli.Int64Flag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "generation length cap in tokens",
			Value:       256,
			Destination: &maxTokens,
		},
	}
}

func newLogger(w io.Writer) logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(w, level)
	case "text":
		return logger.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(w, level)
	}
}

func newEngine(log logger.Logger) (*engine.Engine, error) {
	be, err := llm.Open(backendName)
	if err != nil {
		return nil, err
	}
	params := engine.DefaultParams()
	params.Temperature = float32(temperature)
	params.TopP = float32(topP)
	params.MaxTokens = int(maxTokens)
	params.ContextWindow = int(contextLen)
	params.BatchSize = int(batchSize)
	return engine.New(be, params, log), nil
}
