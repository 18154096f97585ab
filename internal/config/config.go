// Package config provides the hierarchical configuration tree
// described in spec.md §6.4: a nested map[string]any with typed
// dotted-path accessors and sane defaults, loaded from JSON on disk.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// Config wraps a parsed configuration tree with typed dotted-path
// lookups, e.g. Get("storage.disk_pressure.warn_free_gb").
type Config struct {
	root map[string]any
}

// New wraps an already-parsed tree.
func New(root map[string]any) *Config {
	if root == nil {
		root = map[string]any{}
	}
	return &Config{root: root}
}

// Load reads and parses a JSON configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root map[string]any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	return New(root), nil
}

// Get walks a dotted path and returns the raw value, or nil if any
// segment is missing or not a map.
func (c *Config) Get(path string) any {
	if c == nil {
		return nil
	}
	cur := any(c.root)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// GetString returns the string at path, or def if absent/wrong type.
func (c *Config) GetString(path, def string) string {
	if v, ok := c.Get(path).(string); ok {
		return v
	}
	return def
}

// GetBool returns the bool at path, or def if absent/wrong type.
func (c *Config) GetBool(path string, def bool) bool {
	switch v := c.Get(path).(type) {
	case bool:
		return v
	default:
		return def
	}
}

// GetInt returns the int at path, accepting JSON numbers (float64) or
// numeric strings, or def if absent/unparseable.
func (c *Config) GetInt(path string, def int) int {
	switch v := c.Get(path).(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetFloat returns the float64 at path, or def if absent/wrong type.
func (c *Config) GetFloat(path string, def float64) float64 {
	switch v := c.Get(path).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// GetStringSlice returns the []string at path, or nil.
func (c *Config) GetStringSlice(path string) []string {
	v, ok := c.Get(path).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, e := range v {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetBoolMap returns the map[string]bool at path (e.g.
// plugins.enabled), or an empty map.
func (c *Config) GetBoolMap(path string) map[string]bool {
	out := map[string]bool{}
	v, ok := c.Get(path).(map[string]any)
	if !ok {
		return out
	}
	for k, raw := range v {
		if b, ok := raw.(bool); ok {
			out[k] = b
		}
	}
	return out
}

// Raw returns the underlying tree.
func (c *Config) Raw() map[string]any { return c.root }
