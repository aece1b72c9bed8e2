package securestore

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	m.Run()
}

func TestSetGetDelete(t *testing.T) {
	s := NewWithService("diktilo-test", nil)

	if err := s.Set("groq", "api_key", "sk-test-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("groq", "api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "sk-test-123" {
		t.Fatalf("got %q want sk-test-123", got)
	}

	if err := s.Delete("groq", "api_key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("groq", "api_key"); err != ErrNotFound {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestDeleteAbsentKeyIsNotAnError(t *testing.T) {
	s := NewWithService("diktilo-test", nil)
	if err := s.Delete("openai", "never_set"); err != nil {
		t.Fatalf("Delete on absent key should be a no-op, got %v", err)
	}
}

func TestSetTrackedPopulatesList(t *testing.T) {
	s := NewWithService("diktilo-test", nil)

	if err := s.SetTracked("deepgram", "api_key", "dg-1"); err != nil {
		t.Fatalf("SetTracked: %v", err)
	}
	if err := s.SetTracked("deepgram", "region", "us"); err != nil {
		t.Fatalf("SetTracked: %v", err)
	}

	keys, err := s.List("deepgram")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys want 2: %v", len(keys), keys)
	}
}

func TestPluginFetcherReturnsEmptyStringWhenUnset(t *testing.T) {
	s := NewWithService("diktilo-test", nil)
	f := NewPluginFetcher(s, "assemblyai")

	value, err := f.SecureValue("api_key")
	if err != nil {
		t.Fatalf("SecureValue: %v", err)
	}
	if value != "" {
		t.Fatalf("got %q want empty string", value)
	}
}

func TestPluginFetcherReturnsStoredValue(t *testing.T) {
	s := NewWithService("diktilo-test", nil)
	if err := s.Set("anthropic", "api_key", "sk-ant-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	f := NewPluginFetcher(s, "anthropic")
	value, err := f.SecureValue("api_key")
	if err != nil {
		t.Fatalf("SecureValue: %v", err)
	}
	if value != "sk-ant-1" {
		t.Fatalf("got %q want sk-ant-1", value)
	}
}
