package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

// maxOutputTokens caps the model response. Extraction payloads are
// compact JSON; this is generous headroom.
const maxOutputTokens = 4096

// AnthropicConfig configures the Anthropic-backed inferencer.
type AnthropicConfig struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string
	// Model is the model identifier, e.g. "claude-sonnet-4-5".
	Model string
}

// AnthropicInferencer implements Inferencer using the Anthropic
// Messages API.
type AnthropicInferencer struct {
	client anthropic.Client
	model  anthropic.Model
	logger logger.Interface
}

// NewAnthropicInferencer creates an inferencer from config.
func NewAnthropicInferencer(cfg AnthropicConfig, log logger.Interface) (*AnthropicInferencer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: missing API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: missing model identifier")
	}
	return &AnthropicInferencer{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(cfg.Model),
		logger: log.WithComponent("inference.anthropic"),
	}, nil
}

// Infer sends the page content with the schema-bound system prompt and
// returns the model's text output.
func (a *AnthropicInferencer) Infer(ctx context.Context, req Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	system := buildSystemPrompt(req)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", &Error{Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	payload := strings.TrimSpace(sb.String())
	if payload == "" {
		return "", &Error{Err: fmt.Errorf("empty response from model %s", a.model)}
	}

	a.logger.Debug("model response received", "model", string(a.model), "bytes", len(payload))
	return payload, nil
}

// buildSystemPrompt combines the extraction instructions with the target
// schema and the output contract the pipeline parser relies on.
func buildSystemPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(req.Instructions)
	sb.WriteString("\n\nReturn ONLY a JSON array of objects conforming to this JSON schema, ")
	sb.WriteString("with no surrounding prose or code fences. ")
	sb.WriteString("Return an empty array if nothing matches.\n\nSchema:\n")
	sb.Write(req.Schema)
	return sb.String()
}
