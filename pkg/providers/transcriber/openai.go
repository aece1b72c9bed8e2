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

// OpenAIPlugin mirrors GroqPlugin's multipart upload shape against OpenAI's
// own Whisper-compatible endpoint, matching the teacher's OpenAISTT client.
type OpenAIPlugin struct {
	base
	url        string
	model      string
	sampleRate int
}

func NewOpenAIPlugin(model string) *OpenAIPlugin {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIPlugin{
		base:       base{apiKeyOptionKey: "openai_api_key"},
		url:        "https://api.openai.com/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
	}
}

func (p *OpenAIPlugin) Name() string { return "openai" }

func (p *OpenAIPlugin) Capabilities() Capabilities {
	return Capabilities{SupportsBatch: true, RequiresAPIKey: true}
}

func (p *OpenAIPlugin) Initialize() error { return nil }

func (p *OpenAIPlugin) OnActivated(secrets SecretFetcher, _ Callbacks) error {
	return p.base.activate(secrets)
}

func (p *OpenAIPlugin) OnDeactivated() error { return nil }
func (p *OpenAIPlugin) Destroy() error       { return nil }

func (p *OpenAIPlugin) Schema() []Option { return p.base.schema() }
func (p *OpenAIPlugin) VerifyOptions(values map[string]interface{}) (bool, []string) {
	return p.base.verifyOptions(values)
}
func (p *OpenAIPlugin) UpdateOptions(values map[string]interface{}, _ Callbacks) error {
	return p.base.updateOptions(values)
}
func (p *OpenAIPlugin) EnsureModel(map[string]interface{}, func(float64, string), func(string, string)) error {
	return nil
}

func (p *OpenAIPlugin) TranscribeFile(path string) (string, error) {
	pcm, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.transcribe(context.Background(), pcm)
}

func (p *OpenAIPlugin) transcribe(ctx context.Context, wavBytes []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", p.model); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
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
		return "", fmt.Errorf("%w: openai status %d: %s", ErrSegmentFailed, resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}

func (p *OpenAIPlugin) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	return p.transcribe(ctx, audio.WavFromSamples(samples, p.sampleRate))
}

var _ BatchPlugin = (*OpenAIPlugin)(nil)
