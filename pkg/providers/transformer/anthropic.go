package transformer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds each transform call; any call exceeding it must
// surface as ErrTimeout so the supervisor falls back to raw text.
const DefaultTimeout = 10 * time.Second

// AnthropicTransformer rewrites text via the Messages API, adapted from the
// teacher's AnthropicLLM client: same system/messages split, image blocks
// added to the content array when a screenshot is present.
type AnthropicTransformer struct {
	apiKey  string
	url     string
	model   string
	timeout time.Duration
}

func NewAnthropicTransformer(apiKey, model string) *AnthropicTransformer {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicTransformer{
		apiKey:  apiKey,
		url:     "https://api.anthropic.com/v1/messages",
		model:   model,
		timeout: DefaultTimeout,
	}
}

func (a *AnthropicTransformer) Name() string { return "anthropic" }

func (a *AnthropicTransformer) Transform(req Request) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	var content []map[string]interface{}
	if req.Screenshot != nil {
		content = append(content, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": req.Screenshot.MIMEType,
				"data":       base64.StdEncoding.EncodeToString(req.Screenshot.Data),
			},
		})
	}
	content = append(content, map[string]interface{}{"type": "text", "text": req.Text})

	payload := map[string]interface{}{
		"model":      a.model,
		"max_tokens": 1024,
		"system":     buildSystemPrompt(req),
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrAuthFailed
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: anthropic status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(result.Content) == 0 {
		return "", ErrInvalidResponse
	}
	return result.Content[0].Text, nil
}

var _ Transformer = (*AnthropicTransformer)(nil)
