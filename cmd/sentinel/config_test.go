package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := os.MkdirAll(filepath.Join(dir, "sentinel"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `model_path: /models/tiny.gguf
backend: mock
temperature: 0.5
max_tokens: 128
server_address: "0.0.0.0:9000"
`
	if err := os.WriteFile(filepath.Join(dir, "sentinel", "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if cfg.ModelPath != "/models/tiny.gguf" {
		t.Fatalf("ModelPath = %q", cfg.ModelPath)
	}
	if cfg.Backend != "mock" {
		t.Fatalf("Backend = %q", cfg.Backend)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.5 {
		t.Fatalf("Temperature = %v", cfg.Temperature)
	}
	if cfg.MaxTokens == nil || *cfg.MaxTokens != 128 {
		t.Fatalf("MaxTokens = %v", cfg.MaxTokens)
	}
	if cfg.TopP != nil {
		t.Fatalf("TopP should be unset, got %v", *cfg.TopP)
	}
	if cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("ServerAddress = %q", cfg.ServerAddress)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := LoadConfig()
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := os.MkdirAll(filepath.Join(dir, "sentinel"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sentinel", "config.yaml"), []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if cfg != (Config{}) {
		t.Fatalf("expected zero config for malformed file, got %+v", cfg)
	}
}

func TestApplyConfigFlagPrecedence(t *testing.T) {
	cfg := Config{
		ModelPath: "/from/config.gguf",
		Backend:   "config-backend",
	}

	cmd := &cli.Command{
		Name:  "test",
		Flags: commonModelFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyConfig(c, cfg)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"test", "--model", "/from/flag.gguf"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if modelPath != "/from/flag.gguf" {
		t.Fatalf("explicit flag overridden by config: %q", modelPath)
	}
	if backendName != "config-backend" {
		t.Fatalf("config value not applied for unset flag: %q", backendName)
	}
}

func TestTrimTrailingNewline(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"hello\n", "hello"},
		{"hello\r\n", "hello"},
		{"hello", "hello"},
		{"\n", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := trimTrailingNewline(tc.in); got != tc.want {
			t.Errorf("trimTrailingNewline(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
