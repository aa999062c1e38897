package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/pr-warden/internal/config"
)

// Model is the minimal generation contract the reviewer needs: one prompt
// in, one completion out.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewModel builds the configured provider's model.
func NewModel(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Model, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set in environment for gemini provider")
		}
		model, err := gemini.New(ctx,
			gemini.WithModel(cfg.GeneratorModel),
			gemini.WithAPIKey(cfg.GeminiAPIKey),
		)
		if err != nil {
			return nil, err
		}
		return &goframeModel{model: model}, nil
	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithModel(cfg.GeneratorModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return &goframeModel{model: model}, nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set in environment for anthropic provider")
		}
		return newAnthropicModel(cfg.AnthropicAPIKey, cfg.GeneratorModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// goframeModel adapts a goframe llms.Model to the Model contract.
type goframeModel struct {
	model llms.Model
}

func (g *goframeModel) Generate(ctx context.Context, prompt string) (string, error) {
	return g.model.Call(ctx, prompt)
}

// anthropicModel calls the Anthropic Messages API directly.
type anthropicModel struct {
	api   *anthropic.Client
	model anthropic.Model
}

func newAnthropicModel(apiKey, model string) *anthropicModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	client := anthropic.NewClient(opts...)
	return &anthropicModel{
		api:   &client,
		model: anthropic.Model(model),
	}
}

func (a *anthropicModel) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return stripFence(text), nil
}

// stripFence removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}
