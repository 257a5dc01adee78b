package llm_client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned by Generate/GenerateJSON when no backend was
// initialized (usually a missing API credential). Missing credentials are a
// startup warning, not a fatal error; the first completion call fails cleanly
// with this sentinel instead.
var ErrNotInitialized = errors.New("llm backend not initialized")

type Config struct {
	Backend    string
	Model      string
	OllamaHost string
}

type Provider interface {
	Init(cfg Config) error
	DefaultModel() string
	AllowedModelOrDefault(model string) string
	Generate(ctx context.Context, prompt, model string) (string, error)
	GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error)
}

var (
	active   Provider
	activeID string
)

func Init(cfg Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "gemini"
	}
	var p Provider
	switch backend {
	case "ollama":
		p = &ollamaProvider{}
	case "gemini":
		p = &geminiProvider{}
	default:
		return fmt.Errorf("unsupported LLM backend: %s", backend)
	}
	if err := p.Init(cfg); err != nil {
		return err
	}
	active = p
	activeID = backend
	return nil
}

// Ready reports whether a backend is initialized. Front doors check this
// before invoking the supervisor so a missing credential surfaces as a
// user-visible configuration message, not a mid-turn failure.
func Ready() bool {
	return active != nil
}

func ActiveBackend() string {
	if active == nil {
		return ""
	}
	return activeID
}

func Generate(ctx context.Context, prompt, model string) (string, error) {
	if active == nil {
		return "", ErrNotInitialized
	}
	return active.Generate(ctx, prompt, model)
}

func GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error) {
	if active == nil {
		return "", ErrNotInitialized
	}
	return active.GenerateJSON(ctx, prompt, model, schema)
}
