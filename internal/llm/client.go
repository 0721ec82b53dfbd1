// Package llm OpenAI兼容chat接口的补全客户端。
// 调用方负责重试策略；本包不做自动重试（成本控制）
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// Client 补全客户端接口
type Client interface {
	// CompleteJSON 发起一次补全，要求模型输出JSON对象，返回原始响应文本
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// chatRequest chat completions请求结构
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
}

// chatMessage 消息结构
type chatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// responseFormat 响应格式
type responseFormat struct {
	Type string `json:"type"` // "json_object"
}

// chatResponse chat completions响应结构
type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   tokenUsage   `json:"usage"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type httpClient struct {
	cfg         config.LLMConfig
	client      *http.Client
	rateLimiter *RateLimiter
}

// NewClient 创建补全客户端
func NewClient(cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("补全服务API密钥是必需的")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("补全服务BaseURL是必需的")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &httpClient{
		cfg:         cfg,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(cfg.RatePerMin),
	}, nil
}

// CompleteJSON 发起一次JSON补全调用
func (c *httpClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", model.NewInfraError("llm", "RateLimit", "等待速率限制被中断", err)
	}

	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	request := &chatRequest{
		Model:          c.cfg.Model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
		MaxTokens:      c.cfg.MaxTokens,
		Temperature:    c.cfg.Temperature,
	}

	response, err := c.callAPI(ctx, request)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("API响应中没有选择项")
	}

	return response.Choices[0].Message.Content, nil
}

// callAPI 调用chat completions接口
func (c *httpClient) callAPI(ctx context.Context, request *chatRequest) (*chatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回错误状态码 %d: %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API返回错误: %s", response.Error.Message)
	}

	return &response, nil
}
