package transcriber

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
)

// StreamingPlugin is a realtime recognizer adapted from the teacher's
// LokutorTTS websocket client: lazy-dial on first use, drop the connection
// and let the next call redial on any read/write failure rather than
// retrying in place.
type StreamingPlugin struct {
	base
	host string
	path string

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func NewStreamingPlugin(host string) *StreamingPlugin {
	return &StreamingPlugin{
		base: base{apiKeyOptionKey: "streaming_api_key"},
		host: host,
		path: "/v1/stream",
	}
}

func (p *StreamingPlugin) Name() string { return "streaming" }

func (p *StreamingPlugin) Capabilities() Capabilities {
	return Capabilities{SupportsRealtime: true, RequiresAPIKey: true}
}

func (p *StreamingPlugin) Initialize() error { return nil }

func (p *StreamingPlugin) OnActivated(secrets SecretFetcher, _ Callbacks) error {
	return p.base.activate(secrets)
}

func (p *StreamingPlugin) OnDeactivated() error { return p.StopStream() }
func (p *StreamingPlugin) Destroy() error       { return p.StopStream() }

func (p *StreamingPlugin) Schema() []Option { return p.base.schema() }
func (p *StreamingPlugin) VerifyOptions(values map[string]interface{}) (bool, []string) {
	return p.base.verifyOptions(values)
}
func (p *StreamingPlugin) UpdateOptions(values map[string]interface{}, _ Callbacks) error {
	return p.base.updateOptions(values)
}
func (p *StreamingPlugin) EnsureModel(map[string]interface{}, func(float64, string), func(string, string)) error {
	return nil
}

func (p *StreamingPlugin) getConn(ctx context.Context) (*websocket.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}

	u := url.URL{Scheme: "wss", Host: p.host, Path: p.path, RawQuery: "api_key=" + p.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial streaming recognizer: %v", ErrUnavailable, err)
	}
	p.conn = conn
	return conn, nil
}

// StartStream opens the socket and launches a background reader that turns
// incoming JSON frames into cb.OnUpdate calls until StopStream is called.
func (p *StreamingPlugin) StartStream(cb Callbacks) error {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := p.getConn(ctx)
	if err != nil {
		cancel()
		return err
	}

	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	go p.readLoop(ctx, conn, cb)
	return nil
}

func (p *StreamingPlugin) readLoop(ctx context.Context, conn *websocket.Conn, cb Callbacks) {
	for {
		var evt struct {
			Segments []UpdateSegment `json:"segments"`
			Status   string          `json:"status"`
		}
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			p.mu.Lock()
			if p.conn == conn {
				p.conn = nil
			}
			p.mu.Unlock()
			if cb.OnLog != nil && ctx.Err() == nil {
				cb.OnLog("error", fmt.Sprintf("streaming recognizer read failed: %v", err))
			}
			return
		}
		if cb.OnUpdate != nil {
			cb.OnUpdate(UpdateEvent{Segments: evt.Segments, Status: evt.Status})
		}
	}
}

// ProcessAudioSegment sends one segment's audio as a binary frame over the
// open stream, returning ErrStreamNotOpen if StartStream was never called.
func (p *StreamingPlugin) ProcessAudioSegment(samples []float32) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return ErrStreamNotOpen
	}

	pcm := audio.Float32ToPCM16(samples)
	if err := conn.Write(context.Background(), websocket.MessageBinary, pcm); err != nil {
		p.mu.Lock()
		if p.conn == conn {
			p.conn = nil
		}
		p.mu.Unlock()
		return fmt.Errorf("%w: write audio segment: %v", ErrSegmentFailed, err)
	}
	return nil
}

// StopStream closes the socket and cancels the reader goroutine; safe to
// call more than once.
func (p *StreamingPlugin) StopStream() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.conn != nil {
		err := p.conn.Close(websocket.StatusNormalClosure, "")
		p.conn = nil
		return err
	}
	return nil
}

var _ RealtimePlugin = (*StreamingPlugin)(nil)
