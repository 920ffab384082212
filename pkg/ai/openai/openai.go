package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	NAME = "openai"
)

// Driver 兼容 OpenAI 协议的模型服务（openai / deepseek / qwen / ollama 等）
type Driver struct {
	client   *openai.Client
	model    string
	defaults ai.ChatOptions
	observer ai.RequestObserver
}

type Option func(d *Driver)

func WithObserver(o ai.RequestObserver) Option {
	return func(d *Driver) {
		d.observer = o
	}
}

func NewClient(token, endpoint string) *openai.Client {
	cfg := openai.DefaultConfig(token)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	}

	return openai.NewClientWithConfig(cfg)
}

// New builds a driver from a project model config, validating it first.
func New(cfg *types.ModelConfig, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, errors.Configuration("model config is required")
	}
	m := *cfg
	m.FillDefaults()
	if err := m.Validate(); err != nil {
		return nil, errors.Kind(errors.ErrConfiguration, err, "invalid model config")
	}

	d := &Driver{
		client: NewClient(m.ApiKey, normalizeEndpoint(m.ProviderID, m.Endpoint)),
		model:  m.Model(),
		defaults: ai.NewChatOptions(
			ai.WithTemperature(m.Temperature),
			ai.WithTopP(m.TopP),
			ai.WithMaxTokens(m.MaxTokens),
		),
	}
	for _, apply := range opts {
		apply(d)
	}
	return d, nil
}

// ollama 原生接口为 /api，OpenAI 兼容接口为 /v1
func normalizeEndpoint(provider, endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	endpoint = strings.TrimSuffix(endpoint, "/chat/completions")
	if strings.EqualFold(provider, types.PROVIDER_OLLAMA) && strings.HasSuffix(endpoint, "/api") {
		return strings.TrimSuffix(endpoint, "/api") + "/v1"
	}
	return endpoint
}

func (s *Driver) ModelName() string {
	return s.model
}

func (s *Driver) buildRequest(messages []ai.MessageContext, opts ...ai.ChatOption) openai.ChatCompletionRequest {
	o := s.defaults
	for _, apply := range opts {
		apply(&o)
	}

	req := openai.ChatCompletionRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: o.MaxTokens,
	}
	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		req.TopP = *o.TopP
	}
	return req
}

func (s *Driver) Chat(ctx context.Context, messages []ai.MessageContext, opts ...ai.ChatOption) (ai.GenerateResponse, error) {
	req := s.buildRequest(messages, opts...)

	var (
		result ai.GenerateResponse
		start  = time.Now()
	)
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("empty choices")
	}
	if s.observer != nil {
		s.observer(s.model, time.Since(start), err)
	}
	if err != nil {
		slog.Error("Completion error", slog.String("driver", NAME), slog.String("model", s.model), slog.String("error", err.Error()))
		return result, errors.External(err, "completion error")
	}

	slog.Debug("Chat", slog.String("driver", NAME), slog.String("model", s.model), slog.Int("total_tokens", resp.Usage.TotalTokens))

	for _, c := range resp.Choices {
		result.Received = append(result.Received, c.Message.Content)
	}
	result.Usage = &resp.Usage
	result.Model = resp.Model
	return result, nil
}
