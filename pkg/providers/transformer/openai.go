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

// OpenAITransformer mirrors the teacher's OpenAILLM client against the chat
// completions endpoint; a screenshot is attached as an image_url content
// block when present.
type OpenAITransformer struct {
	apiKey  string
	url     string
	model   string
	timeout time.Duration
}

func NewOpenAITransformer(apiKey, model string) *OpenAITransformer {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAITransformer{
		apiKey:  apiKey,
		url:     "https://api.openai.com/v1/chat/completions",
		model:   model,
		timeout: DefaultTimeout,
	}
}

func (o *OpenAITransformer) Name() string { return "openai" }

func (o *OpenAITransformer) Transform(req Request) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	var userContent []map[string]interface{}
	userContent = append(userContent, map[string]interface{}{"type": "text", "text": req.Text})
	if req.Screenshot != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.Screenshot.MIMEType, base64.StdEncoding.EncodeToString(req.Screenshot.Data))
		userContent = append(userContent, map[string]interface{}{
			"type":      "image_url",
			"image_url": map[string]string{"url": dataURL},
		})
	}

	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": buildSystemPrompt(req)},
			{"role": "user", "content": userContent},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

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
		return "", fmt.Errorf("%w: openai status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(result.Choices) == 0 {
		return "", ErrInvalidResponse
	}
	return result.Choices[0].Message.Content, nil
}

var _ Transformer = (*OpenAITransformer)(nil)
