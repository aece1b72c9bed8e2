package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
)

// AssemblyAIPlugin uploads audio, submits a transcription job, then polls
// for completion, matching the teacher's three-phase AssemblyAISTT client.
type AssemblyAIPlugin struct {
	base
	baseURL    string
	pollEvery  time.Duration
	sampleRate int
}

func NewAssemblyAIPlugin() *AssemblyAIPlugin {
	return &AssemblyAIPlugin{
		base:       base{apiKeyOptionKey: "assemblyai_api_key"},
		baseURL:    "https://api.assemblyai.com/v2",
		pollEvery:  500 * time.Millisecond,
		sampleRate: 16000,
	}
}

func (p *AssemblyAIPlugin) Name() string { return "assemblyai" }

func (p *AssemblyAIPlugin) Capabilities() Capabilities {
	return Capabilities{SupportsBatch: true, RequiresAPIKey: true}
}

func (p *AssemblyAIPlugin) Initialize() error { return nil }

func (p *AssemblyAIPlugin) OnActivated(secrets SecretFetcher, _ Callbacks) error {
	return p.base.activate(secrets)
}

func (p *AssemblyAIPlugin) OnDeactivated() error { return nil }
func (p *AssemblyAIPlugin) Destroy() error       { return nil }

func (p *AssemblyAIPlugin) Schema() []Option { return p.base.schema() }
func (p *AssemblyAIPlugin) VerifyOptions(values map[string]interface{}) (bool, []string) {
	return p.base.verifyOptions(values)
}
func (p *AssemblyAIPlugin) UpdateOptions(values map[string]interface{}, _ Callbacks) error {
	return p.base.updateOptions(values)
}
func (p *AssemblyAIPlugin) EnsureModel(map[string]interface{}, func(float64, string), func(string, string)) error {
	return nil
}

func (p *AssemblyAIPlugin) TranscribeFile(path string) (string, error) {
	wavBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.transcribe(context.Background(), wavBytes)
}

func (p *AssemblyAIPlugin) transcribe(ctx context.Context, wavBytes []byte) (string, error) {
	uploadURL, err := p.upload(ctx, wavBytes)
	if err != nil {
		return "", err
	}
	jobID, err := p.submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	return p.poll(ctx, jobID)
}

func (p *AssemblyAIPlugin) upload(ctx context.Context, wavBytes []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/upload", bytes.NewReader(wavBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrAuthFailed
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: assemblyai upload status %d: %s", ErrSegmentFailed, resp.StatusCode, body)
	}

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.UploadURL, nil
}

func (p *AssemblyAIPlugin) submit(ctx context.Context, uploadURL string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"audio_url": uploadURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: assemblyai submit status %d: %s", ErrSegmentFailed, resp.StatusCode, body)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (p *AssemblyAIPlugin) poll(ctx context.Context, jobID string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transcript/"+jobID, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", p.apiKey)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}

		var result struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			return "", decodeErr
		}

		switch result.Status {
		case "completed":
			return result.Text, nil
		case "error":
			return "", fmt.Errorf("%w: assemblyai: %s", ErrSegmentFailed, result.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.pollEvery):
		}
	}
}

func (p *AssemblyAIPlugin) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	return p.transcribe(ctx, audio.WavFromSamples(samples, p.sampleRate))
}

var _ BatchPlugin = (*AssemblyAIPlugin)(nil)
