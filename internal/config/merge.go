package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyLogging = "logging"
	keyStore   = "store"
	keyCache   = "cache"
	keyEngine  = "engine"
	keyServer  = "server"
	keyBatch   = "batch"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config fields.
// Keys not in this list are ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyLogging: true,
	keyStore:   true,
	keyCache:   true,
	keyEngine:  true,
	keyServer:  true,
	keyBatch:   true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level sections onto
// target. A section present in the file is decoded over a fresh default
// section, so fields the file omits fall back to compiled defaults rather than
// to whatever target held. Sections absent from the file are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}
		if err = unmarshalSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes node into the section of target named by key.
func unmarshalSection(target *Config, key string, node *yaml.Node) error {
	defaults := New()
	switch key {
	case keyLogging:
		v := defaults.Logging
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyStore:
		v := defaults.Store
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Store = v
	case keyCache:
		v := defaults.Cache
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Cache = v
	case keyEngine:
		v := defaults.Engine
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Engine = v
	case keyServer:
		v := defaults.Server
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Server = v
	case keyBatch:
		v := defaults.Batch
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Batch = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
