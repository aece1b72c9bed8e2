package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
)

// GroqPlugin is a batch recognizer adapted from the teacher's GroqSTT
// client: same multipart/form-data upload to the Whisper-compatible
// endpoint, wrapped in the two-phase plugin lifecycle.
type GroqPlugin struct {
	base
	url        string
	model      string
	sampleRate int
}

// NewGroqPlugin builds a Groq-backed batch plugin. model defaults to
// "whisper-large-v3-turbo" when empty.
func NewGroqPlugin(model string) *GroqPlugin {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqPlugin{
		base:       base{apiKeyOptionKey: "groq_api_key"},
		url:        "https://api.groq.com/openai/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
	}
}

func (p *GroqPlugin) Name() string { return "groq" }

func (p *GroqPlugin) Capabilities() Capabilities {
	return Capabilities{SupportsBatch: true, RequiresAPIKey: true}
}

func (p *GroqPlugin) Initialize() error { return nil }

func (p *GroqPlugin) OnActivated(secrets SecretFetcher, _ Callbacks) error {
	return p.base.activate(secrets)
}

func (p *GroqPlugin) OnDeactivated() error { return nil }
func (p *GroqPlugin) Destroy() error       { return nil }

func (p *GroqPlugin) Schema() []Option { return p.base.schema() }
func (p *GroqPlugin) VerifyOptions(values map[string]interface{}) (bool, []string) {
	return p.base.verifyOptions(values)
}
func (p *GroqPlugin) UpdateOptions(values map[string]interface{}, _ Callbacks) error {
	return p.base.updateOptions(values)
}
func (p *GroqPlugin) EnsureModel(map[string]interface{}, func(float64, string), func(string, string)) error {
	return nil
}

// TranscribeFile reads the WAV file at path and uploads its bytes unchanged.
func (p *GroqPlugin) TranscribeFile(path string) (string, error) {
	pcm, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.transcribe(context.Background(), pcm)
}

func (p *GroqPlugin) transcribe(ctx context.Context, wavBytes []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", p.model); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(wavBytes)); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrAuthFailed
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: groq status %d: %s", ErrSegmentFailed, resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// TranscribeSamples is a convenience entry point used by tests and by
// batch callers holding raw float32 samples rather than a WAV file on disk.
func (p *GroqPlugin) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	return p.transcribe(ctx, audio.WavFromSamples(samples, p.sampleRate))
}

var _ BatchPlugin = (*GroqPlugin)(nil)
