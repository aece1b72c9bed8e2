package transformer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicTransformerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ak" {
			t.Fatalf("unexpected api key header: %s", r.Header.Get("x-api-key"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"text": "rewritten text"}},
		})
	}))
	defer srv.Close()

	a := NewAnthropicTransformer("ak", "")
	a.url = srv.URL

	out, err := a.Transform(Request{Text: "raw text"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out != "rewritten text" {
		t.Fatalf("got %q want %q", out, "rewritten text")
	}
}

func TestAnthropicTransformerAuthFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewAnthropicTransformer("bad", "")
	a.url = srv.URL

	_, err := a.Transform(Request{Text: "x"})
	if err != ErrAuthFailed {
		t.Fatalf("got %v want ErrAuthFailed", err)
	}
}

func TestAnthropicTransformerRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewAnthropicTransformer("ak", "")
	a.url = srv.URL

	_, err := a.Transform(Request{Text: "x"})
	if err != ErrRateLimited {
		t.Fatalf("got %v want ErrRateLimited", err)
	}
}

func TestAnthropicTransformerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{"content": []map[string]string{{"text": "late"}}})
	}))
	defer srv.Close()

	a := NewAnthropicTransformer("ak", "")
	a.url = srv.URL
	a.timeout = 5 * time.Millisecond

	_, err := a.Transform(Request{Text: "x"})
	if err != ErrTimeout {
		t.Fatalf("got %v want ErrTimeout", err)
	}
}

func TestOpenAITransformerAttachesImage(t *testing.T) {
	var gotContent []interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Role    string      `json:"role"`
				Content interface{} `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		for _, m := range payload.Messages {
			if m.Role == "user" {
				gotContent = m.Content.([]interface{})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	o := NewOpenAITransformer("ak", "")
	o.url = srv.URL

	_, err := o.Transform(Request{Text: "hi", Screenshot: &Screenshot{MIMEType: "image/png", Data: []byte{1, 2, 3}}})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(gotContent) != 2 {
		t.Fatalf("expected text+image content parts, got %d", len(gotContent))
	}
}

func TestGoogleTransformerIgnoresScreenshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "gemini reply"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGoogleTransformer("ak", "")
	g.url = srv.URL

	out, err := g.Transform(Request{Text: "hi", Screenshot: &Screenshot{MIMEType: "image/png", Data: []byte{1}}})
	if err != nil {
		t.Fatalf("Transform: %v (screenshot must be silently ignored, not cause failure)", err)
	}
	if out != "gemini reply" {
		t.Fatalf("got %q want %q", out, "gemini reply")
	}
}
