// Package transcriber defines the recognizer plugin contract every speech
// backend (local batch, local streaming, cloud) implements, plus concrete
// HTTP/WebSocket adapters grounded on the teacher's STT provider clients.
package transcriber

// Capabilities are declared statically per plugin; the supervisor reads them
// once after activation to decide which work operations it may call.
type Capabilities struct {
	SupportsRealtime          bool
	SupportsBatch             bool
	RequiresAPIKey            bool
	RequiresModelDownload     bool
	OverridesAITransformation bool
}

// OptionType enumerates the config schema's value kinds.
type OptionType int

const (
	OptionString OptionType = iota
	OptionNumber
	OptionBool
	OptionSelect
	OptionModelSelect
	OptionAPIKey
)

// OptionCategory groups options for UI presentation.
type OptionCategory int

const (
	CategoryBasic OptionCategory = iota
	CategoryAdvanced
	CategoryModel
)

// Option describes one configurable value a plugin exposes.
type Option struct {
	Key         string
	Type        OptionType
	Default     interface{}
	Category    OptionCategory
	Constraints map[string]interface{}
}

// UpdateSegment mirrors the wire schema's segments[] entries.
type UpdateSegment struct {
	ID         string
	Type       string // "inprogress" | "transcribed"
	Text       string
	Completed  *bool
	Start      *int64
	End        *int64
	Timestamp  int64
	Confidence *float64
}

// UpdateEvent is what a plugin emits for every text update it produces; the
// Flow Supervisor decides which to surface (spec 4.4).
type UpdateEvent struct {
	Segments   []UpdateSegment
	Status     string // "listening" | "transforming", optional
	SessionUID string
}

// Callbacks are invoked synchronously by the plugin from whatever goroutine
// is driving it (its stream reader, its file-transcribe call). Mirrors the
// teacher-adjacent smart-turn engine's function-field Callbacks: no hidden
// goroutine spawns, every field optional.
type Callbacks struct {
	OnUpdate   func(UpdateEvent)
	OnProgress func(percent float64, message string)
	OnLog      func(level, message string)
}

// SecretFetcher is how a plugin reads api-key-typed option values: never
// from the config record directly, always through the secure-storage
// adapter (spec 4.4 "Security").
type SecretFetcher interface {
	SecureValue(key string) (string, error)
}

// Plugin is the shape every recognizer exposes regardless of
// realtime/batch variant.
type Plugin interface {
	Name() string
	Capabilities() Capabilities

	// Initialize does cheap checks only (binary present, dependency
	// available) so every installed plugin can run it at app launch.
	Initialize() error
	// OnActivated does the heavy work: load model, open stream, validate
	// key, ensure model downloaded.
	OnActivated(secrets SecretFetcher, cb Callbacks) error
	OnDeactivated() error
	Destroy() error

	Schema() []Option
	VerifyOptions(values map[string]interface{}) (bool, []string)
	UpdateOptions(values map[string]interface{}, cb Callbacks) error
	EnsureModel(values map[string]interface{}, onProgress func(float64, string), onLog func(string, string)) error
}

// RealtimePlugin is implemented by plugins with Capabilities.SupportsRealtime.
type RealtimePlugin interface {
	Plugin
	StartStream(cb Callbacks) error
	// ProcessAudioSegment feeds one segment's audio; failures are reported
	// via on_update or a returned error.
	ProcessAudioSegment(samples []float32) error
	StopStream() error // idempotent
}

// BatchPlugin is implemented by plugins with Capabilities.SupportsBatch.
type BatchPlugin interface {
	Plugin
	TranscribeFile(path string) (string, error)
}
