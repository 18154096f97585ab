// Package plugin implements manifest discovery, enablement gating,
// safe-mode sandboxing, and hot-reload for the extension system
// described in spec.md, grounded on
// original_source/autocapture/plugins/manager.py. Go has no
// importlib-style dynamic module loading, so "factory" strings resolve
// against a process-wide FactoryRegistry that extension packages
// populate via init(), mirroring how database/sql drivers register
// themselves.
package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SecurityPillars is the security section of an extension's manifest
// pillars block, the only part enablement gating inspects.
type SecurityPillars struct {
	NetworkAccess string `yaml:"network_access" json:"network_access"`
	Sandbox       string `yaml:"sandbox" json:"sandbox"`
}

// Pillars is the full pillars block; only Security is interpreted
// today, the rest is carried through for operator visibility.
type Pillars struct {
	Security SecurityPillars `yaml:"security" json:"security"`
}

// Extension is one capability an extension manifest exposes.
type Extension struct {
	Kind    string  `yaml:"kind" json:"kind"`
	Name    string  `yaml:"name" json:"name"`
	Version string  `yaml:"version" json:"version"`
	Factory string  `yaml:"factory" json:"factory"`
	Pillars Pillars `yaml:"pillars" json:"pillars"`
}

// Manifest is one plugin's on-disk manifest.
type Manifest struct {
	PluginID   string      `yaml:"plugin_id" json:"plugin_id"`
	Extensions []Extension `yaml:"extensions" json:"extensions"`
	Path       string      `yaml:"-" json:"path"`
}

// LoadManifest parses a YAML or JSON manifest file at path.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(raw, &m); err != nil {
			return Manifest{}, fmt.Errorf("plugin: parse manifest %s: %w", path, err)
		}
	default: // .yaml, .yml
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return Manifest{}, fmt.Errorf("plugin: parse manifest %s: %w", path, err)
		}
	}
	m.Path = path
	return m, nil
}

// manifestHash returns the sha256 hex digest of path's raw bytes, used
// for hot-reload change detection alongside mtime.
func manifestHash(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// DiscoverManifestPaths walks builtinRoot (if it exists) plus, unless
// safeMode is set, every root in searchPaths, collecting
// *.yaml/*.yml/*.json files in sorted, de-duplicated order. No plugin
// code is imported during discovery — only the manifest bytes are read.
func DiscoverManifestPaths(builtinRoot string, searchPaths []string, safeMode bool) ([]string, error) {
	var roots []string
	if builtinRoot != "" {
		if _, err := os.Stat(builtinRoot); err == nil {
			roots = append(roots, builtinRoot)
		}
	}
	if !safeMode {
		for _, p := range searchPaths {
			if _, err := os.Stat(p); err == nil {
				roots = append(roots, p)
			}
		}
	}

	seen := map[string]bool{}
	var out []string
	for _, root := range roots {
		found, err := globManifests(root)
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			abs, err := filepath.Abs(p)
			if err != nil {
				abs = p
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func globManifests(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
