package transformer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// GoogleTransformer mirrors the teacher's GoogleLLM client against the
// generateContent endpoint. Gemini's inline_data part could carry an image,
// but this adapter silently ignores Screenshot per spec 4.5 to keep one
// provider in the set that genuinely cannot see it.
type GoogleTransformer struct {
	apiKey  string
	url     string
	model   string
	timeout time.Duration
}

func NewGoogleTransformer(apiKey, model string) *GoogleTransformer {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleTransformer{
		apiKey:  apiKey,
		url:     "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:   model,
		timeout: DefaultTimeout,
	}
}

func (g *GoogleTransformer) Name() string { return "google" }

func (g *GoogleTransformer) Transform(req Request) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	}

	payload := map[string]interface{}{
		"contents": []content{
			{Role: "user", Parts: []part{{Text: buildSystemPrompt(req) + "\n\n" + req.Text}}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		return "", fmt.Errorf("%w: google status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrInvalidResponse
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

var _ Transformer = (*GoogleTransformer)(nil)
