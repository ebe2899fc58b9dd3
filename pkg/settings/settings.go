package settings

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"hnblacklist/pkg/rules"
)

// Store keys.
const (
	KeyFilters                    = "filters"
	KeyFilterEvenWithTestFailures = "filter_even_with_test_failures"
)

// Settings are the values a user saves between runs.
type Settings struct {
	// Filters is the newline separated rule text.
	Filters                    string `mapstructure:"filters"`
	FilterEvenWithTestFailures bool   `mapstructure:"filter_even_with_test_failures"`
}

// Load reads the settings from store. Absent keys keep their zero value.
func Load(store Store) (Settings, error) {
	raw := make(map[string]any, 2)
	for _, key := range []string{KeyFilters, KeyFilterEvenWithTestFailures} {
		if v, ok := store.Get(key); ok {
			raw[key] = v
		}
	}

	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("settings decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Save writes both settings to store. Surrounding whitespace is trimmed from
// the filters text.
func Save(store Store, s Settings) error {
	if err := store.Set(KeyFilters, strings.TrimSpace(s.Filters)); err != nil {
		return fmt.Errorf("save %s: %w", KeyFilters, err)
	}
	if err := store.Set(KeyFilterEvenWithTestFailures, s.FilterEvenWithTestFailures); err != nil {
		return fmt.Errorf("save %s: %w", KeyFilterEvenWithTestFailures, err)
	}
	return nil
}

// Rules parses the saved filters text.
func (s Settings) Rules(opts rules.ParseOptions) (rules.List, error) {
	return rules.ParseText(s.Filters, opts)
}
