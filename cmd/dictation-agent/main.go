// Command dictation-agent wires a mic source, a hotkey-driven Flow
// Supervisor, and a status line together into a standalone desktop
// dictation agent. It replaces the teacher's always-on conversational loop
// (cmd/agent/main.go) with a hotkey-triggered record/transcribe/inject flow.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/diktilo-ai/diktilo-core/pkg/capture"
	"github.com/diktilo-ai/diktilo-core/pkg/dconfig"
	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
	"github.com/diktilo-ai/diktilo-core/pkg/hotkey"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/injector"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/transcriber"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/transformer"
	"github.com/diktilo-ai/diktilo-core/pkg/securestore"
	"github.com/diktilo-ai/diktilo-core/pkg/segment"
	"github.com/diktilo-ai/diktilo-core/pkg/supervisor"
	"github.com/diktilo-ai/diktilo-core/pkg/vad"
)

const exitOK = 0
const exitConfigError = 1
const exitPluginUnavailable = 2
const exitAuthFailed = 3

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "note: no .env file found, using system environment variables")
	}

	logger := diktlog.NewLogrusLogger(logrus.InfoLevel, diktlog.FileConfig{
		Path: os.Getenv("DICTATION_LOG_FILE"),
	})

	configPath := os.Getenv("DICTATION_CONFIG_PATH")
	if configPath == "" {
		p, err := dconfig.DefaultPath()
		if err != nil {
			logger.Error("resolve config path", "error", err)
			return exitConfigError
		}
		configPath = p
	}

	doc, err := dconfig.Load(configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		return exitConfigError
	}

	actions, err := doc.ToSegmentActions()
	if err != nil {
		logger.Error("compile actions", "error", err)
		return exitConfigError
	}

	store := securestore.New(logger)
	seedSecretFromEnv(store, "groq", "groq_api_key", "GROQ_API_KEY")
	seedSecretFromEnv(store, "openai", "openai_api_key", "OPENAI_API_KEY")
	seedSecretFromEnv(store, "deepgram", "deepgram_api_key", "DEEPGRAM_API_KEY")
	seedSecretFromEnv(store, "assemblyai", "assemblyai_api_key", "ASSEMBLYAI_API_KEY")
	seedSecretFromEnv(store, "streaming", "streaming_api_key", "STREAMING_API_KEY")

	plugin, err := selectTranscriber(doc.ActiveTranscriber)
	if err != nil {
		logger.Error("select transcriber", "error", err)
		return exitConfigError
	}

	if err := plugin.Initialize(); err != nil {
		logger.Error("transcriber unavailable", "plugin", plugin.Name(), "error", err)
		return exitPluginUnavailable
	}

	secrets := securestore.NewPluginFetcher(store, plugin.Name())
	if err := plugin.OnActivated(secrets, transcriber.Callbacks{}); err != nil {
		if errors.Is(err, transcriber.ErrAuthFailed) {
			logger.Error("transcriber auth failed", "plugin", plugin.Name(), "error", err)
			return exitAuthFailed
		}
		logger.Error("transcriber activation failed", "plugin", plugin.Name(), "error", err)
		return exitPluginUnavailable
	}
	defer plugin.OnDeactivated()

	var transform transformer.Transformer
	if doc.AI.Enabled {
		transform, err = selectTransformer(doc.AI.Provider, doc.AI.Model)
		if err != nil {
			logger.Error("select transformer", "error", err)
			return exitConfigError
		}
	}

	limits := capture.DefaultLimits()
	buf := capture.New(limits)
	rmsModel := vad.NewRMSModel()
	segmenter := vad.New(vad.DefaultConfig(limits.SampleRate, 320), rmsModel, buf)
	segStore := segment.New(64)
	inject := injector.NewClipboardInjector(logger)

	mic, err := capture.NewMicSource(capture.MicConfig{SampleRate: limits.SampleRate}, buf, logger)
	if err != nil {
		logger.Error("open capture device", "error", err)
		return exitPluginUnavailable
	}
	defer mic.Close()

	sup := supervisor.New(buf, segmenter, segStore, mic, plugin, secrets, transform, inject,
		supervisor.Config{
			AIEnabled:    doc.AI.Enabled,
			WritingStyle: doc.AI.WritingStyle,
			Actions:      actions,
		}, logger)

	go printStatusLine(sup)

	dispatcher := hotkey.NewDispatcher(sup, logger)
	for _, binding := range doc.Hotkeys {
		mode := supervisor.Toggle
		if binding.Mode == "push_to_talk" {
			mode = supervisor.PushToTalk
		}
		if err := dispatcher.Register(hotkey.Binding{Accelerator: binding.Accelerator, Mode: mode}); err != nil {
			logger.Error("register hotkey", "accelerator", binding.Accelerator, "error", err)
			return exitConfigError
		}
	}
	defer dispatcher.Close()

	fmt.Printf("dictation-agent ready: transcriber=%s ai=%v\n", plugin.Name(), doc.AI.Enabled)
	for _, b := range doc.Hotkeys {
		fmt.Printf("  %s -> %s\n", b.Accelerator, b.Mode)
	}
	fmt.Println("press ctrl+c to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nshutting down...")
	_ = sup.Cancel()
	return exitOK
}

func seedSecretFromEnv(store *securestore.Store, pluginName, optionKey, envVar string) {
	value := os.Getenv(envVar)
	if value == "" {
		return
	}
	if existing, err := store.Get(pluginName, optionKey); err == nil && existing != "" {
		return
	}
	if err := store.Set(pluginName, optionKey, value); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to seed %s secret: %v\n", pluginName, err)
	}
}

func selectTranscriber(name string) (transcriber.Plugin, error) {
	switch name {
	case "openai":
		return transcriber.NewOpenAIPlugin("whisper-1"), nil
	case "deepgram":
		return transcriber.NewDeepgramPlugin("nova-2"), nil
	case "assemblyai":
		return transcriber.NewAssemblyAIPlugin(), nil
	case "streaming":
		return transcriber.NewStreamingPlugin(os.Getenv("STREAMING_HOST")), nil
	case "groq", "":
		return transcriber.NewGroqPlugin("whisper-large-v3-turbo"), nil
	default:
		return nil, fmt.Errorf("unknown transcriber %q", name)
	}
}

func selectTransformer(provider, model string) (transformer.Transformer, error) {
	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY must be set for openai transformer")
		}
		if model == "" {
			model = "gpt-4o"
		}
		return transformer.NewOpenAITransformer(key, model), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY must be set for google transformer")
		}
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return transformer.NewGoogleTransformer(key, model), nil
	case "anthropic", "":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY must be set for anthropic transformer")
		}
		if model == "" {
			model = "claude-3-5-sonnet-20241022"
		}
		return transformer.NewAnthropicTransformer(key, model), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}

func printStatusLine(sup *supervisor.Supervisor) {
	for ev := range sup.Events() {
		if ev.Type == supervisor.EventError {
			fmt.Printf("\r\033[K[ERROR] %v\n", ev.Err)
			continue
		}
		fmt.Printf("\r\033[K[%s]\n", ev.Status)
	}
}
