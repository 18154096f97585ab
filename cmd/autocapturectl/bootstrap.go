package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/plugin"
)

// exitError lets a subcommand's Execute request a specific process
// exit code, matching spec.md §6.3's 0/1/2/124 contract instead of
// go-flags' default pass-or-fail.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 1
}

func ledgerPath() string {
	if opts.LedgerPath != "" {
		return opts.LedgerPath
	}
	return filepath.Join(opts.DataDir, "ledger.ndjson")
}

func anchorPath() string {
	if opts.AnchorPath != "" {
		return opts.AnchorPath
	}
	return filepath.Join(opts.DataDir, "anchors.ndjson")
}

func lockfilePath() string {
	if opts.LockfilePath != "" {
		return opts.LockfilePath
	}
	return filepath.Join(opts.DataDir, "plugins.lock.json")
}

func journalPath() string {
	return filepath.Join(opts.DataDir, "journal.ndjson")
}

func defaultMetadataPath() string {
	return filepath.Join(opts.DataDir, "metadata.db")
}

func defaultMediaRoot() string {
	return filepath.Join(opts.DataDir, "media")
}

func loadConfig() (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.New(nil), nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", opts.ConfigPath, err)
	}
	return cfg, nil
}

// loadPluginManager builds a Manager over opts.PluginsRoot. A blank
// PluginsRoot is tolerated (no plugins discovered) since plugins are
// optional for most subcommands.
func loadPluginManager(cfg *config.Config) (*plugin.Manager, error) {
	return plugin.NewManager(cfg, plugin.Options{
		BuiltinRoot: opts.PluginsRoot,
		SafeMode:    cfg.GetBool("plugins.safe_mode", false),
	})
}

// capabilitiesFromPlugins registers one capability id per distinct
// enabled extension kind a plugin manager discovered, resolving each
// kind's backing instance up front; a kind whose extension fails to
// resolve is not registered.
func capabilitiesFromPlugins(mgr *plugin.Manager) *capability.Registry {
	caps := capability.New()
	if mgr == nil {
		return caps
	}
	seen := map[string]bool{}
	for _, row := range mgr.ListExtensions() {
		if !row.Enabled || seen[row.Kind] {
			continue
		}
		instance, err := mgr.GetExtension(row.Kind, "")
		if err != nil {
			continue
		}
		caps.Register(row.Kind, instance.Value)
		seen[row.Kind] = true
	}
	return caps
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
