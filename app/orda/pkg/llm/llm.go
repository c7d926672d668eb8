// Package llm 封装对话模型调用：限流、429 重试以及 JSON 解析。
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

// ErrNoModel 未配置对话模型
var ErrNoModel = errors.New("llm: chat model not configured")

var errParse = errors.New("llm: invalid json response")

// Client 带限流与重试的对话模型客户端，可被多个 goroutine 共享
type Client struct {
	chat    model.BaseChatModel
	limiter *rate.Limiter
	policy  retry.Policy
}

// NewChatModel 创建 OpenAI 兼容的对话模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig, name string) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoModel
	}
	if name == "" {
		name = cfg.Model
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return cm, nil
}

// NewLimiter 按每分钟请求数创建限流器
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// New 创建客户端，chat 为 nil 时所有调用返回 ErrNoModel
func New(chat model.BaseChatModel, limiter *rate.Limiter) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		chat:    chat,
		limiter: limiter,
		policy: retry.Policy{
			MaxAttempts: 4,
			Backoff:     retry.Exponential(2 * time.Second),
			Retryable: func(err error) bool {
				return errors.Is(err, errParse) || retry.RateLimited(err)
			},
		},
	}
}

// WithPolicy 替换重试策略，主要用于测试
func (c *Client) WithPolicy(p retry.Policy) *Client {
	cp := *c
	cp.policy = p
	return &cp
}

// Enabled 是否配置了对话模型
func (c *Client) Enabled() bool {
	return c != nil && c.chat != nil
}

// GenerateText 返回模型的文本回复
func (c *Client) GenerateText(ctx context.Context, messages []*schema.Message) (string, error) {
	if !c.Enabled() {
		return "", ErrNoModel
	}
	return retry.Value(ctx, c.policy, func(ctx context.Context) (string, error) {
		resp, err := c.generate(ctx, messages)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(resp.Content), nil
	})
}

// GenerateJSON 调用模型并把回复解析到 out，解析失败会重新生成
func (c *Client) GenerateJSON(ctx context.Context, messages []*schema.Message, out any) error {
	if !c.Enabled() {
		return ErrNoModel
	}
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.generate(ctx, messages)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(StripFences(resp.Content)), out); err != nil {
			return fmt.Errorf("%w: %v", errParse, err)
		}
		return nil
	})
}

func (c *Client) generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}
	resp, err := c.chat.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty message", errParse)
	}
	return resp, nil
}

// StripFences 去掉 ```json 代码块包裹
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
