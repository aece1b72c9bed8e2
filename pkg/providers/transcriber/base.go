package transcriber

import "fmt"

// base holds the option bookkeeping shared by every HTTP batch adapter: an
// api-key-typed option fetched through SecureValue at activation time, never
// read from the config record directly (spec 4.4 Security).
type base struct {
	apiKeyOptionKey string
	apiKey          string
}

func (b *base) schema() []Option {
	return []Option{
		{Key: b.apiKeyOptionKey, Type: OptionAPIKey, Category: CategoryBasic},
	}
}

func (b *base) verifyOptions(values map[string]interface{}) (bool, []string) {
	if _, ok := values[b.apiKeyOptionKey]; !ok {
		return false, []string{fmt.Sprintf("missing required option %q", b.apiKeyOptionKey)}
	}
	return true, nil
}

func (b *base) activate(secrets SecretFetcher) error {
	key, err := secrets.SecureValue(b.apiKeyOptionKey)
	if err != nil {
		return fmt.Errorf("transcriber: fetch secret %q: %w", b.apiKeyOptionKey, err)
	}
	if key == "" {
		return ErrAuthFailed
	}
	b.apiKey = key
	return nil
}

func (b *base) updateOptions(values map[string]interface{}) error {
	if v, ok := values[b.apiKeyOptionKey].(string); ok && v != "" {
		b.apiKey = v
	}
	return nil
}
