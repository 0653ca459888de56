package client

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/naoina/toml"

	"github.com/opchan/core/delegation"
	"github.com/opchan/core/internal/metrics"
)

// tomlSettings mirrors the teacher's cmd/geth config loader convention:
// field names are used verbatim as toml keys, and an unrecognized key is
// tolerated rather than treated as fatal (a forward-compatible config
// file should not crash an older binary).
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return nil
	},
}

// FileConfig is the subset of Config that round-trips through a TOML
// file on disk; the injected runtime collaborators (Transport,
// NameResolver, OnCacheUpdated) have no serializable form and are always
// supplied programmatically.
type FileConfig struct {
	StoragePath              string        `toml:",omitempty"`
	DeviceDelegationDuration time.Duration `toml:",omitempty"`
	Metrics                  metrics.Config `toml:",omitempty"`
}

// DefaultFileConfig matches the teacher's Defaults-var convention
// (tosconfig.Defaults): an in-memory store and a 30-day delegation by
// default.
var DefaultFileConfig = FileConfig{
	DeviceDelegationDuration: delegation.Duration30Days * time.Millisecond,
	Metrics:                  metrics.DefaultConfig,
}

// LoadFileConfig reads and decodes a TOML file at path into
// DefaultFileConfig, mirroring teacher's cmd/utils loadConfig: start from
// the defaults, let the file override only what it sets.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("client: open config %q: %w", path, err)
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("client: parse config %q: %w", path, err)
	}
	return cfg, nil
}

// SaveFileConfig writes cfg to path as TOML, creating or truncating it.
func SaveFileConfig(path string, cfg FileConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("client: create config %q: %w", path, err)
	}
	defer f.Close()

	var buf strings.Builder
	if err := tomlSettings.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("client: encode config: %w", err)
	}
	_, err = f.WriteString(buf.String())
	return err
}
