package dconfig

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.ActiveTranscriber != "groq" {
		t.Fatalf("got %q want default groq", doc.ActiveTranscriber)
	}
	if len(doc.Hotkeys) != 1 {
		t.Fatalf("got %d hotkeys want 1 default binding", len(doc.Hotkeys))
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	doc := Default()
	doc.AI.Enabled = true
	doc.AI.Provider = "openai"
	doc.Actions = []ActionConfig{
		{
			ID:      "stop",
			Enabled: true,
			MatchPatterns: []PatternConfig{
				{Prefix: "stop listening"},
			},
			ClosesTranscription: true,
		},
	}

	if err := Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.AI.Enabled || got.AI.Provider != "openai" {
		t.Fatalf("got AI settings %+v", got.AI)
	}
	if len(got.Actions) != 1 || got.Actions[0].ID != "stop" {
		t.Fatalf("got actions %+v", got.Actions)
	}
}

func TestToSegmentActionsSkipsDisabled(t *testing.T) {
	doc := Default()
	doc.Actions = []ActionConfig{
		{ID: "enabled-one", Enabled: true, MatchPatterns: []PatternConfig{{Prefix: "go"}},
			Handlers: []HandlerConfig{{Kind: "segment_op", SegmentOp: "clear"}}},
		{ID: "disabled-one", Enabled: false, MatchPatterns: []PatternConfig{{Prefix: "skip"}}},
	}

	actions, err := doc.ToSegmentActions()
	if err != nil {
		t.Fatalf("ToSegmentActions: %v", err)
	}
	if len(actions) != 1 || actions[0].ID != "enabled-one" {
		t.Fatalf("got %+v want one enabled action", actions)
	}
}

func TestToSegmentActionsRejectsUnknownHandlerKind(t *testing.T) {
	doc := Default()
	doc.Actions = []ActionConfig{
		{ID: "bad", Enabled: true, Handlers: []HandlerConfig{{Kind: "not_a_kind"}}},
	}

	if _, err := doc.ToSegmentActions(); err == nil {
		t.Fatal("expected error for unknown handler kind")
	}
}
