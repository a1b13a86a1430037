/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package config loads the YAML configuration a corvus embedder or the CLI
// reads at startup: classpath roots, which parser to decode class bytes
// with, and the default log level. The shape and gopkg.in/yaml.v3 decoding
// mirror jacobin's own LoadOptionsTable-style startup options, reshaped from
// flag-table registration into one declarative document.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/corvuslang/corvus/corvuslog"
)

// Config is the on-disk shape a corvus.yaml document decodes into.
type Config struct {
	// Classpath lists directories searched, in order, for "<name>.class"
	// files when loading bytecode classes.
	Classpath []string `yaml:"classpath"`

	// ExternalParser selects classfile.ExternalParser (real compiled .class
	// byte streams) over the default gob-encoded fixture format.
	ExternalParser bool `yaml:"externalParser"`

	// LogLevel names the minimum level the VM's logger emits, one of
	// TRACE_INST, FINE, INFO, WARNING, SEVERE (case-insensitive).
	LogLevel string `yaml:"logLevel"`

	// HeapCells overrides the heap's starting bump-allocator capacity. Zero
	// means "use the VM's default".
	HeapCells int `yaml:"heapCells"`
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Level resolves LogLevel to a corvuslog.Level, defaulting to Info for an
// empty or unrecognized value.
func (c *Config) Level() corvuslog.Level {
	switch normalizeLevel(c.LogLevel) {
	case "TRACE_INST":
		return corvuslog.TraceInst
	case "FINE":
		return corvuslog.Fine
	case "WARNING":
		return corvuslog.Warning
	case "SEVERE":
		return corvuslog.Severe
	default:
		return corvuslog.Info
	}
}

func normalizeLevel(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
