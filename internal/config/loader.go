package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TRAFFICPULSE_"

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables, then validates it. A missing file path is allowed;
// an unreadable or malformed file is a fatal startup error.
//
// Environment keys map onto nested config keys with double underscores, e.g.
// TRAFFICPULSE_BROKER__BASE_URL -> broker.base_url.
func Load(path string) (*Config, error) {
	// Pick up a local .env first so its values are visible to the env
	// provider. A missing .env is the normal case outside local development,
	// and logging is not configured yet at this point.
	_ = godotenv.Load()

	cfg := *Defaults()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
