package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// LlamaCLI runs prompts through a local llama.cpp `llama-cli` binary.
// Slowest provider, but fully offline with no server process to manage.
type LlamaCLI struct {
	bin       string
	modelPath string
	timeout   time.Duration
}

// NewLlamaCLI creates a llama-cli subprocess client.
func NewLlamaCLI(bin, modelPath string) *LlamaCLI {
	if bin == "" {
		bin = "llama-cli"
	}
	return &LlamaCLI{
		bin:       bin,
		modelPath: modelPath,
		timeout:   180 * time.Second,
	}
}

// Complete runs llama-cli once with the prompt and returns its output.
func (l *LlamaCLI) Complete(ctx context.Context, prompt string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.bin,
		"-m", l.modelPath,
		"-p", prompt,
		"-n", "1024",
		"--temp", "0.3",
		"--no-display-prompt",
		"--simple-io",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("llama-cli: %w (stderr: %s)", err, tailOf(stderr.String(), 400))
	}

	return &Response{
		Content:  cleanLocalOutput(stdout.String()),
		Provider: "llama-cli",
	}, nil
}

// cleanLocalOutput strips the end-of-stream marker llama-cli appends.
func cleanLocalOutput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "[end of text]")
	return strings.TrimSpace(s)
}

// tailOf keeps the last n bytes of s. llama-cli writes long load banners
// to stderr and only the end says what actually went wrong.
func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
