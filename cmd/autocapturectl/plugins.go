package main

import (
	"context"
	"os"

	"github.com/ninjra/autocapture-prime-sub005/internal/gate"
	"github.com/ninjra/autocapture-prime-sub005/internal/plugin"
)

type cmdPluginsList struct{}

func (c *cmdPluginsList) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(2, "%w", err)
	}
	mgr, err := loadPluginManager(cfg)
	if err != nil {
		return fail(2, "loading plugins: %w", err)
	}
	printJSON(struct {
		Plugins    []plugin.PluginRow    `json:"plugins"`
		Extensions []plugin.ExtensionRow `json:"extensions"`
	}{Plugins: mgr.ListPlugins(), Extensions: mgr.ListExtensions()})
	return nil
}

type cmdPluginsVerifyDefaults struct {
	Lockfile string `long:"lockfile" description:"plugin lockfile path override"`
}

func (c *cmdPluginsVerifyDefaults) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(2, "%w", err)
	}
	mgr, err := loadPluginManager(cfg)
	if err != nil {
		return fail(2, "loading plugins: %w", err)
	}
	path := c.Lockfile
	if path == "" {
		path = lockfilePath()
	}
	lf, err := plugin.LoadLockfile(path)
	if err != nil {
		return fail(2, "loading lockfile %s: %w", path, err)
	}
	requiredIDs := cfg.GetStringSlice("plugins.default_pack")
	step := gate.PluginsVerifyDefaultsStep(mgr, lf, requiredIDs, nil)
	report := gate.Run(context.Background(), []gate.Step{step})
	if opts.JSON {
		printJSON(report)
	} else {
		report.Print(os.Stdout)
	}
	if !report.OK {
		return fail(1, "plugins verify-defaults failed")
	}
	return nil
}
