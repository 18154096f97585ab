package plugin

import (
	"fmt"
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/kerr"
)

// Instance pairs a resolved extension with the plugin that owns it.
type Instance struct {
	PluginID  string
	Extension Extension
	Value     any
}

type cacheKey struct {
	pluginID string
	name     string
}

// Manager discovers, enables, and lazily instantiates extensions.
type Manager struct {
	cfg       *config.Config
	safeMode  bool
	factories *FactoryRegistry

	manifests      []Manifest
	mtimes         map[string]int64
	hashes         map[string]string
	reloadPending  map[string]bool
	cache          *lru.Cache[cacheKey, Instance]
}

// Options configures a Manager.
type Options struct {
	BuiltinRoot  string
	SearchPaths  []string
	SafeMode     bool
	CacheSize    int // defaults to 64
	Factories    *FactoryRegistry
}

// NewManager discovers manifests per Options and builds a Manager
// ready to serve GetExtension calls.
func NewManager(cfg *config.Config, opts Options) (*Manager, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.Factories == nil {
		opts.Factories = DefaultFactoryRegistry
	}
	cache, err := lru.New[cacheKey, Instance](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:           cfg,
		safeMode:      opts.SafeMode,
		factories:     opts.Factories,
		mtimes:        map[string]int64{},
		hashes:        map[string]string{},
		reloadPending: map[string]bool{},
		cache:         cache,
	}
	if err := m.discover(opts.BuiltinRoot, opts.SearchPaths); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) discover(builtinRoot string, searchPaths []string) error {
	paths, err := DiscoverManifestPaths(builtinRoot, searchPaths, m.safeMode)
	if err != nil {
		return err
	}
	var manifests []Manifest
	for _, path := range paths {
		mf, err := LoadManifest(path)
		if err != nil {
			return err
		}
		manifests = append(manifests, mf)

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		m.mtimes[path] = info.ModTime().UnixNano()
		hash, err := manifestHash(path)
		if err != nil {
			return err
		}
		m.hashes[path] = hash
	}
	m.manifests = manifests
	return nil
}

// enabledPlugins computes the set of plugin ids currently enabled
// under allowlist/enabled-map/default-pack/safe-mode rules.
func (m *Manager) enabledPlugins() map[string]bool {
	allowlist := setOf(m.cfg.GetStringSlice("plugins.allowlist"))
	enabledMap := m.cfg.GetBoolMap("plugins.enabled")
	defaultPack := setOf(m.cfg.GetStringSlice("plugins.default_pack"))

	enabled := map[string]bool{}
	for _, mf := range m.manifests {
		pid := mf.PluginID
		if len(allowlist) > 0 && !allowlist[pid] {
			continue
		}
		if m.safeMode {
			if !defaultPack[pid] {
				continue
			}
			if !safeExtensions(mf.Extensions) {
				continue
			}
			enabled[pid] = true
			continue
		}
		if v, explicit := enabledMap[pid]; explicit {
			if v {
				enabled[pid] = true
			}
		} else {
			enabled[pid] = true
		}
	}
	return enabled
}

func safeExtensions(extensions []Extension) bool {
	for _, ext := range extensions {
		sec := ext.Pillars.Security
		sandbox := sec.Sandbox
		if sandbox == "" {
			sandbox = "inproc"
		}
		network := sec.NetworkAccess
		if network == "" {
			network = "none"
		}
		if sandbox != "inproc" {
			return false
		}
		if network != "none" && network != "localhost" {
			return false
		}
	}
	return true
}

func setOf(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		out[s] = true
	}
	return out
}

// PluginRow is one row of ListPlugins.
type PluginRow struct {
	PluginID string `json:"plugin_id"`
	Enabled  bool   `json:"enabled"`
	Path     string `json:"path"`
}

// ListPlugins returns every discovered plugin, sorted by plugin id.
func (m *Manager) ListPlugins() []PluginRow {
	enabled := m.enabledPlugins()
	rows := make([]PluginRow, 0, len(m.manifests))
	for _, mf := range m.manifests {
		rows = append(rows, PluginRow{PluginID: mf.PluginID, Enabled: enabled[mf.PluginID], Path: mf.Path})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PluginID < rows[j].PluginID })
	return rows
}

// ExtensionRow is one row of ListExtensions.
type ExtensionRow struct {
	PluginID string `json:"plugin_id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Enabled  bool   `json:"enabled"`
}

// ListExtensions returns every extension across every discovered
// plugin, sorted by (kind, plugin_id, name).
func (m *Manager) ListExtensions() []ExtensionRow {
	enabled := m.enabledPlugins()
	var rows []ExtensionRow
	for _, mf := range m.manifests {
		for _, ext := range mf.Extensions {
			rows = append(rows, ExtensionRow{
				PluginID: mf.PluginID,
				Kind:     ext.Kind,
				Name:     ext.Name,
				Version:  ext.Version,
				Enabled:  enabled[mf.PluginID],
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		if rows[i].PluginID != rows[j].PluginID {
			return rows[i].PluginID < rows[j].PluginID
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// Refresh re-reads any manifest whose mtime or content hash changed,
// evicting its cached extension instances so the next GetExtension
// call re-resolves the factory. Returns the reloaded plugin ids.
func (m *Manager) Refresh() ([]string, error) {
	var reloaded []string
	for _, mf := range m.manifests {
		path := mf.Path
		info, err := os.Stat(path)
		if err != nil {
			continue // manifest removed since discovery; leave as-is
		}
		mtime := info.ModTime().UnixNano()
		hash, err := manifestHash(path)
		if err != nil {
			return nil, err
		}
		if mtime == m.mtimes[path] && hash == m.hashes[path] {
			continue
		}
		newManifest, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		m.mtimes[path] = mtime
		m.hashes[path] = hash
		for i, existing := range m.manifests {
			if existing.Path == path {
				m.manifests[i] = newManifest
				break
			}
		}
		reloaded = append(reloaded, newManifest.PluginID)
		m.reloadPending[newManifest.PluginID] = true
		m.evictPlugin(newManifest.PluginID)
	}
	return reloaded, nil
}

func (m *Manager) evictPlugin(pluginID string) {
	for _, key := range m.cache.Keys() {
		if key.pluginID == pluginID {
			m.cache.Remove(key)
		}
	}
}

// GetExtension resolves the first enabled extension matching kind
// (and name, if given), lazily instantiating it via the factory
// registry and caching the result.
func (m *Manager) GetExtension(kind, name string) (Instance, error) {
	enabled := m.enabledPlugins()
	for _, mf := range m.manifests {
		if !enabled[mf.PluginID] {
			continue
		}
		for _, ext := range mf.Extensions {
			if ext.Kind != kind {
				continue
			}
			if name != "" && ext.Name != name {
				continue
			}
			key := cacheKey{pluginID: mf.PluginID, name: ext.Name}
			if cached, ok := m.cache.Get(key); ok {
				return cached, nil
			}
			factory, ok := m.factories.Lookup(ext.Factory)
			if !ok {
				return Instance{}, kerr.New(kerr.PluginLoadFailed, "factory_not_registered",
					fmt.Sprintf("plugin_id=%s;extension=%s;kind=%s;factory=%s;manifest=%s",
						mf.PluginID, ext.Name, ext.Kind, ext.Factory, mf.Path))
			}
			value, err := factory(mf.PluginID)
			if err != nil {
				wrapped := kerr.Wrap(kerr.PluginLoadFailed, "factory_call_failed", err)
				wrapped.Message = fmt.Sprintf("plugin_id=%s;extension=%s;kind=%s;factory=%s;manifest=%s;error=%s",
					mf.PluginID, ext.Name, ext.Kind, ext.Factory, mf.Path, err)
				return Instance{}, wrapped
			}
			delete(m.reloadPending, mf.PluginID)
			instance := Instance{PluginID: mf.PluginID, Extension: ext, Value: value}
			m.cache.Add(key, instance)
			return instance, nil
		}
	}
	return Instance{}, kerr.New(kerr.CapabilityMissing, "no_enabled_extension",
		fmt.Sprintf("no enabled extension for kind %q", kind))
}
