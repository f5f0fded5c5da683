package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
)

// Client implements types.ChatCompleter against any OpenAI compatible endpoint.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

type Options struct {
	BaseUrl     string
	ApiKey      string
	Model       string
	Proxy       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NormalizeApiKey drops a pasted "Bearer " prefix and surrounding spaces.
func NormalizeApiKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 7 && strings.EqualFold(key[:7], "Bearer ") {
		key = strings.TrimSpace(key[7:])
	}
	return key
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(NormalizeApiKey(opts.ApiKey))
	if opts.BaseUrl != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseUrl, "/")
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.Proxy != "" {
		if proxyURL, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			log.GetLogger().Warn("代理地址无效 Invalid proxy address", zap.String("proxy", opts.Proxy), zap.Error(err))
		}
	}
	// summaries of long transcripts can take minutes
	cfg.HTTPClient = &http.Client{Transport: transport, Timeout: opts.Timeout}

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (c *Client) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.ChatCompletionWithHistory(ctx, systemPrompt, nil, userPrompt)
}

// ChatCompletionWithHistory sends systemPrompt, then history, then userPrompt.
// Empty prompts are left out.
func (c *Client) ChatCompletionWithHistory(ctx context.Context, systemPrompt string, history []types.Message, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, lo.Map(history, func(m types.Message, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	})...)
	if userPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.GetLogger().Error("openai create chat completion failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}
	log.GetLogger().Debug("openai chat completion done",
		zap.String("model", c.model), zap.Int("total_tokens", resp.Usage.TotalTokens), zap.Duration("cost", time.Since(start)))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai returned empty content, finish reason %q", resp.Choices[0].FinishReason)
	}
	return content, nil
}
