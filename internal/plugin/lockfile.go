package plugin

import (
	"encoding/json"
	"fmt"
	"os"
)

// Lockfile is the hash-commitment record for approved plugins: each
// entry pins a plugin_id to the sha256 of its manifest bytes at
// approval time, so drift (an unreviewed manifest edit) is detectable
// even before any extension is instantiated.
type Lockfile struct {
	Plugins map[string]string `json:"plugins"` // plugin_id -> manifest sha256 hex
}

// LoadLockfile reads a lockfile from path.
func LoadLockfile(path string) (Lockfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Lockfile{}, err
	}
	var lf Lockfile
	if err := json.Unmarshal(raw, &lf); err != nil {
		return Lockfile{}, fmt.Errorf("plugin: parse lockfile %s: %w", path, err)
	}
	if lf.Plugins == nil {
		lf.Plugins = map[string]string{}
	}
	return lf, nil
}

// VerifyResult is one manifest's lockfile-verification outcome.
type VerifyResult struct {
	PluginID string `json:"plugin_id"`
	OK       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"`
}

// VerifyAgainstLockfile checks each discovered manifest's current
// content hash against lf. Plugins absent from lf are reported
// unapproved rather than silently skipped (fail closed).
func (m *Manager) VerifyAgainstLockfile(lf Lockfile) []VerifyResult {
	var out []VerifyResult
	for _, mf := range m.manifests {
		pinned, ok := lf.Plugins[mf.PluginID]
		if !ok {
			out = append(out, VerifyResult{PluginID: mf.PluginID, OK: false, Reason: "not_in_lockfile"})
			continue
		}
		actual, err := manifestHash(mf.Path)
		if err != nil {
			out = append(out, VerifyResult{PluginID: mf.PluginID, OK: false, Reason: "unreadable_manifest"})
			continue
		}
		if actual != pinned {
			out = append(out, VerifyResult{PluginID: mf.PluginID, OK: false, Reason: "hash_mismatch"})
			continue
		}
		out = append(out, VerifyResult{PluginID: mf.PluginID, OK: true})
	}
	return out
}

// VerifyDefaults enforces that every plugin id in requiredIDs is
// present, lockfile-verified, and exposes at least one extension of
// the kind requiredKinds[pluginID] names (when present in the map).
// This backs the gate's "plugins verify-defaults" step.
func (m *Manager) VerifyDefaults(lf Lockfile, requiredIDs []string, requiredKinds map[string]string) []VerifyResult {
	verified := m.VerifyAgainstLockfile(lf)
	byID := make(map[string]VerifyResult, len(verified))
	for _, v := range verified {
		byID[v.PluginID] = v
	}
	manifestByID := make(map[string]Manifest, len(m.manifests))
	for _, mf := range m.manifests {
		manifestByID[mf.PluginID] = mf
	}

	var out []VerifyResult
	for _, id := range requiredIDs {
		v, ok := byID[id]
		if !ok {
			out = append(out, VerifyResult{PluginID: id, OK: false, Reason: "not_discovered"})
			continue
		}
		if !v.OK {
			out = append(out, v)
			continue
		}
		if kind, needed := requiredKinds[id]; needed {
			if !hasKind(manifestByID[id], kind) {
				out = append(out, VerifyResult{PluginID: id, OK: false, Reason: "missing_required_kind:" + kind})
				continue
			}
		}
		out = append(out, VerifyResult{PluginID: id, OK: true})
	}
	return out
}

func hasKind(mf Manifest, kind string) bool {
	for _, ext := range mf.Extensions {
		if ext.Kind == kind {
			return true
		}
	}
	return false
}
