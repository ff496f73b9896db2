package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/transform"
)

// FileName is the optional config file read from the working directory
const FileName = "hubmap.toml"

// EnvPrefix prefixes environment overrides, e.g. HUBMAP_BACKEND_URL
const EnvPrefix = "HUBMAP_"

// Config holds all configuration for the application
type Config struct {
	Port       int                `koanf:"port" validate:"min=1,max=65535"`
	Backend    BackendConfig      `koanf:"backend"`
	Snapshot   SnapshotConfig     `koanf:"snapshot"`
	Viewport   transform.Viewport `koanf:"viewport"`
	Render     RenderConfig       `koanf:"render"`
	Capability string             `koanf:"capability" validate:"oneof=guest manager rider admin"`
	Log        LogConfig          `koanf:"log"`
	Open       bool               `koanf:"open"`
}

// BackendConfig locates the logistics backend
type BackendConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SnapshotConfig names a local network snapshot file
type SnapshotConfig struct {
	File  string `koanf:"file"`
	Watch bool   `koanf:"watch"`
}

// RenderConfig tunes fitting and hit-testing
type RenderConfig struct {
	Padding    float64 `koanf:"padding" validate:"gte=0"`
	PickRadius float64 `koanf:"pick_radius" validate:"gt=0"`
}

// LogConfig selects log level and format
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	JSON  bool   `koanf:"json"`
}

var validate = validator.New()

// Defaults returns the lowest-priority configuration layer
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"port": 8080,
		"backend": map[string]interface{}{
			"url":     "",
			"timeout": "10s",
		},
		"snapshot": map[string]interface{}{
			"file":  "",
			"watch": false,
		},
		"viewport": map[string]interface{}{
			"width":  1280.0,
			"height": 800.0,
		},
		"render": map[string]interface{}{
			"padding":     transform.DefaultPadding,
			"pick_radius": drag.DefaultPickRadius,
		},
		"capability": "guest",
		"log": map[string]interface{}{
			"level": "info",
			"json":  false,
		},
		"open": false,
	}
}

// flagKeys maps command-line flag names onto config keys. Flags not listed
// use their own name.
var flagKeys = map[string]string{
	"backend":     "backend.url",
	"timeout":     "backend.timeout",
	"snapshot":    "snapshot.file",
	"watch":       "snapshot.watch",
	"width":       "viewport.width",
	"height":      "viewport.height",
	"padding":     "render.padding",
	"pick-radius": "render.pick_radius",
	"role":        "capability",
	"log-level":   "log.level",
	"log-json":    "log.json",
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: HUBMAP_ (e.g., HUBMAP_BACKEND_URL=http://localhost:8000)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		provider := posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[fl.Name]
			if !ok {
				key = fl.Name
			}
			return key, posflag.FlagVal(f, fl)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Capability = strings.ToLower(cfg.Capability)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps HUBMAP_BACKEND_URL to backend.url and HUBMAP_RENDER_PICK_RADIUS
// to render.pick_radius.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	switch section {
	case "backend", "snapshot", "viewport", "render", "log":
		return section + "." + rest
	}
	return key
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
