package transcriber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSecrets struct {
	values map[string]string
}

func (f fakeSecrets) SecureValue(key string) (string, error) {
	return f.values[key], nil
}

func TestGroqPluginTranscribeSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	p := NewGroqPlugin("")
	p.url = srv.URL
	if err := p.OnActivated(fakeSecrets{values: map[string]string{"groq_api_key": "test-key"}}, Callbacks{}); err != nil {
		t.Fatalf("OnActivated: %v", err)
	}

	text, err := p.TranscribeSamples(context.Background(), []float32{0, 0.1, -0.1})
	if err != nil {
		t.Fatalf("TranscribeSamples: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("got %q want %q", text, "hello world")
	}
}

func TestGroqPluginUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewGroqPlugin("")
	p.url = srv.URL
	p.apiKey = "bad-key"

	_, err := p.TranscribeSamples(context.Background(), []float32{0})
	if err != ErrAuthFailed {
		t.Fatalf("got %v want ErrAuthFailed", err)
	}
}

func TestDeepgramPluginQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("encoding") != "linear16" {
			t.Fatalf("missing encoding query param: %s", r.URL.RawQuery)
		}
		if r.Header.Get("Content-Type") != "audio/l16" {
			t.Fatalf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": map[string]interface{}{
				"channels": []map[string]interface{}{
					{"alternatives": []map[string]interface{}{{"transcript": "deepgram text"}}},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewDeepgramPlugin("")
	p.baseURL = srv.URL
	p.apiKey = "dg-key"

	text, err := p.TranscribeSamples(context.Background(), []float32{0, 0.2})
	if err != nil {
		t.Fatalf("TranscribeSamples: %v", err)
	}
	if text != "deepgram text" {
		t.Fatalf("got %q want %q", text, "deepgram text")
	}
}

func TestAssemblyAIPluginUploadSubmitPoll(t *testing.T) {
	pollCount := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio.wav"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	})
	mux.HandleFunc("/transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		pollCount++
		if pollCount < 2 {
			json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "completed", "text": "assembly text"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewAssemblyAIPlugin()
	p.baseURL = srv.URL
	p.apiKey = "aai-key"
	p.pollEvery = 0

	text, err := p.TranscribeSamples(context.Background(), []float32{0, 0.3})
	if err != nil {
		t.Fatalf("TranscribeSamples: %v", err)
	}
	if text != "assembly text" {
		t.Fatalf("got %q want %q", text, "assembly text")
	}
	if pollCount < 2 {
		t.Fatalf("expected at least 2 polls, got %d", pollCount)
	}
}

func TestBaseVerifyOptionsRequiresAPIKey(t *testing.T) {
	b := base{apiKeyOptionKey: "k"}
	if ok, _ := b.verifyOptions(map[string]interface{}{}); ok {
		t.Fatal("expected verification to fail without api key")
	}
	if ok, _ := b.verifyOptions(map[string]interface{}{"k": "x"}); !ok {
		t.Fatal("expected verification to pass with api key present")
	}
}

func TestBaseActivateFailsOnEmptySecret(t *testing.T) {
	b := base{apiKeyOptionKey: "k"}
	err := b.activate(fakeSecrets{values: map[string]string{}})
	if err != ErrAuthFailed {
		t.Fatalf("got %v want ErrAuthFailed", err)
	}
}
