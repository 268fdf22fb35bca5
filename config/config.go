package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/greenroute/dispatch/core/metrics"
	"github.com/greenroute/dispatch/core/sync"
	"github.com/greenroute/dispatch/infra/mqtt"
	"github.com/greenroute/dispatch/infra/platform"
	"github.com/greenroute/dispatch/infra/routing"
	"github.com/greenroute/dispatch/navigation"
)

type Config struct {
	Platform   platform.Config   `json:"platform"`
	Routing    routing.Config    `json:"routing"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Sync       sync.Config       `json:"sync"`
	Navigation navigation.Config `json:"navigation"`
	Metrics    metrics.Config    `json:"metrics"`
}

// Load reads the configuration file (json or yaml, by extension) and applies
// GR_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("GR_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Platform.SetDefaults()
	cfg.Routing.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Sync.SetDefaults()
	cfg.Navigation.SetDefaults()
	if err := cfg.Platform.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sync.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
