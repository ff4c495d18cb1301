package nl2sql

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIResolver talks to any OpenAI-compatible chat-completions endpoint.
// SQL generation runs at the configured temperature (0 by default) so that
// refinement loops stay repeatable; the service itself guarantees nothing.
type OpenAIResolver struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIResolver(cfg OpenAIConfig) (*OpenAIResolver, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	clientConfig.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + "/v1"
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIResolver{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: float32(cfg.Temperature),
	}, nil
}

func (r *OpenAIResolver) Resolve(ctx context.Context, req Request) (Result, error) {
	return r.complete(ctx, buildResolvePrompt(req))
}

func (r *OpenAIResolver) Refine(ctx context.Context, req RefineRequest) (Result, error) {
	return r.complete(ctx, buildRefinePrompt(req))
}

func (r *OpenAIResolver) complete(ctx context.Context, prompt string) (Result, error) {
	raw, err := r.Generate(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	sqlText := CleanSQL(raw)
	if sqlText == "" {
		return Result{}, fmt.Errorf("%w: model returned empty SQL", ErrServiceUnavailable)
	}
	return Result{
		SQL:      sqlText,
		Provider: "openai-compatible",
		Model:    r.model,
	}, nil
}

// wireTemperature keeps a configured temperature of 0 on the wire. The
// request struct serializes Temperature with omitempty, so a literal 0 would
// be dropped and the provider would sample at its own default instead. The
// smallest positive float32 survives serialization and samples like 0.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Generate is the raw pass-through used by the summary and interpretation
// prompts. No SQL post-processing is applied.
func (r *OpenAIResolver) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: wireTemperature(r.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty chat completion choices", ErrServiceUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
