package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
)

// DeepgramPlugin posts raw PCM16 as audio/l16 with sample rate and model
// carried as query parameters, matching the teacher's DeepgramSTT client
// rather than groq/openai's multipart shape.
type DeepgramPlugin struct {
	base
	baseURL    string
	model      string
	sampleRate int
}

func NewDeepgramPlugin(model string) *DeepgramPlugin {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramPlugin{
		base:       base{apiKeyOptionKey: "deepgram_api_key"},
		baseURL:    "https://api.deepgram.com/v1/listen",
		model:      model,
		sampleRate: 16000,
	}
}

func (p *DeepgramPlugin) Name() string { return "deepgram" }

func (p *DeepgramPlugin) Capabilities() Capabilities {
	return Capabilities{SupportsBatch: true, RequiresAPIKey: true}
}

func (p *DeepgramPlugin) Initialize() error { return nil }

func (p *DeepgramPlugin) OnActivated(secrets SecretFetcher, _ Callbacks) error {
	return p.base.activate(secrets)
}

func (p *DeepgramPlugin) OnDeactivated() error { return nil }
func (p *DeepgramPlugin) Destroy() error       { return nil }

func (p *DeepgramPlugin) Schema() []Option { return p.base.schema() }
func (p *DeepgramPlugin) VerifyOptions(values map[string]interface{}) (bool, []string) {
	return p.base.verifyOptions(values)
}
func (p *DeepgramPlugin) UpdateOptions(values map[string]interface{}, _ Callbacks) error {
	return p.base.updateOptions(values)
}
func (p *DeepgramPlugin) EnsureModel(map[string]interface{}, func(float64, string), func(string, string)) error {
	return nil
}

func (p *DeepgramPlugin) TranscribeFile(path string) (string, error) {
	pcm, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.transcribePCM(context.Background(), pcm)
}

func (p *DeepgramPlugin) transcribePCM(ctx context.Context, pcm []byte) (string, error) {
	q := url.Values{}
	q.Set("model", p.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	q.Set("channels", "1")

	endpoint := p.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/l16")
	req.Header.Set("Authorization", "Token "+p.apiKey)

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
		return "", fmt.Errorf("%w: deepgram status %d: %s", ErrSegmentFailed, resp.StatusCode, respBody)
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return result.Results.Channels[0].Alternatives[0].Transcript, nil
}

// TranscribeSamples converts float32 PCM to int16 PCM before posting, since
// Deepgram's linear16 encoding expects raw PCM16, not a WAV container.
func (p *DeepgramPlugin) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	return p.transcribePCM(ctx, audio.Float32ToPCM16(samples))
}

var _ BatchPlugin = (*DeepgramPlugin)(nil)
