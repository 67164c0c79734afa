package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
)

// ErrUnavailable 未配置凭证
var ErrUnavailable = errors.New("llm provider not configured")

// Request 单轮补全请求
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider 文本生成服务商
type Provider interface {
	Name() string
	// Available 是否配置了凭证
	Available() bool
	Complete(ctx context.Context, req *Request) (string, error)
}

func newClient(cfg config.ProviderConfig, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
}

// ============= OpenAI =============

// OpenAIProvider OpenAI chat completions
type OpenAIProvider struct {
	apiKey string
	client *resty.Client
}

// NewOpenAIProvider 创建 OpenAI 服务商
func NewOpenAIProvider(cfg config.ProviderConfig, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey: cfg.APIKey,
		client: newClient(cfg, timeout),
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

// Complete 调用 /chat/completions
func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (string, error) {
	if !p.Available() {
		return "", ErrUnavailable
	}

	var out openAIResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(openAIRequest{
			Model:       req.Model,
			Messages:    []openAIMessage{{Role: "user", Content: req.Prompt}},
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("openai status %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return "", fmt.Errorf("openai status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// ============= Anthropic =============

const anthropicVersion = "2023-06-01"

// AnthropicProvider Anthropic messages
type AnthropicProvider struct {
	apiKey string
	client *resty.Client
}

// NewAnthropicProvider 创建 Anthropic 服务商
func NewAnthropicProvider(cfg config.ProviderConfig, timeout time.Duration) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey: cfg.APIKey,
		client: newClient(cfg, timeout),
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Available() bool { return p.apiKey != "" }

// Complete 调用 /messages
func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (string, error) {
	if !p.Available() {
		return "", ErrUnavailable
	}

	var out anthropicResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", p.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(anthropicRequest{
			Model:       req.Model,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("anthropic status %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode())
	}
	if len(out.Content) == 0 {
		return "", errors.New("anthropic returned no content")
	}
	return out.Content[0].Text, nil
}
