// Package securestore keeps per-plugin secret values (API keys, OAuth
// tokens) in the OS keychain rather than the on-disk config document,
// grounded on the zalando/go-keyring dependency surfaced in the pack.
package securestore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
)

// ErrNotFound is returned when a requested key has no stored value.
var ErrNotFound = errors.New("securestore: secret not found")

const defaultService = "diktilo"

// Store reads and writes secrets under a single OS keychain service name,
// namespacing keys by the plugin that owns them.
type Store struct {
	service string
	logger  diktlog.Logger
}

func New(logger diktlog.Logger) *Store {
	if logger == nil {
		logger = diktlog.NoOpLogger{}
	}
	return &Store{service: defaultService, logger: logger}
}

// NewWithService overrides the keychain service name, for tests that must
// not collide with a real installation's stored secrets.
func NewWithService(service string, logger diktlog.Logger) *Store {
	s := New(logger)
	s.service = service
	return s
}

func namespacedKey(pluginName, key string) string {
	return pluginName + "." + key
}

// Set stores value under pluginName's namespace for key.
func (s *Store) Set(pluginName, key, value string) error {
	if err := keyring.Set(s.service, namespacedKey(pluginName, key), value); err != nil {
		return fmt.Errorf("securestore: set %s/%s: %w", pluginName, key, err)
	}
	return nil
}

// Get returns the stored value, or ErrNotFound if none exists.
func (s *Store) Get(pluginName, key string) (string, error) {
	value, err := keyring.Get(s.service, namespacedKey(pluginName, key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("securestore: get %s/%s: %w", pluginName, key, err)
	}
	return value, nil
}

// Delete removes a stored value. Deleting an absent key is not an error.
func (s *Store) Delete(pluginName, key string) error {
	if err := keyring.Delete(s.service, namespacedKey(pluginName, key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("securestore: delete %s/%s: %w", pluginName, key, err)
	}
	return nil
}

// List is a best-effort enumeration of keys known to have been set for a
// plugin. go-keyring exposes no native listing call, so the store tracks
// its own key inventory under a reserved index entry per plugin namespace.
func (s *Store) List(pluginName string) ([]string, error) {
	raw, err := keyring.Get(s.service, namespacedKey(pluginName, indexKey))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("securestore: list %s: %w", pluginName, err)
	}
	return splitIndex(raw), nil
}

const indexKey = "__index__"

func splitIndex(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func joinIndex(keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += k
	}
	return out
}

// SetTracked stores value and records key in the plugin's index so List can
// report it later.
func (s *Store) SetTracked(pluginName, key, value string) error {
	if err := s.Set(pluginName, key, value); err != nil {
		return err
	}
	existing, err := s.List(pluginName)
	if err != nil {
		return err
	}
	for _, k := range existing {
		if k == key {
			return nil
		}
	}
	existing = append(existing, key)
	if err := keyring.Set(s.service, namespacedKey(pluginName, indexKey), joinIndex(existing)); err != nil {
		s.logger.Warn("securestore: failed to update key index", "plugin", pluginName, "error", err)
	}
	return nil
}

// PluginFetcher adapts the Store to transcriber.SecretFetcher for one named
// plugin, inverting the teacher's constructor-injected-api-key pattern into
// an indirection the agent's wiring hands to the plugin's OnActivated.
type PluginFetcher struct {
	store      *Store
	pluginName string
}

func NewPluginFetcher(store *Store, pluginName string) *PluginFetcher {
	return &PluginFetcher{store: store, pluginName: pluginName}
}

func (f *PluginFetcher) SecureValue(key string) (string, error) {
	value, err := f.store.Get(f.pluginName, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return value, err
}
