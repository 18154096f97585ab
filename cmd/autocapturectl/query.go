package main

import (
	"context"

	"github.com/ninjra/autocapture-prime-sub005/internal/facade"
)

type cmdQuery struct {
	TopK int `long:"top-k" default:"10" description:"maximum hits to return"`
	Args struct {
		Text string `positional-arg-name:"text" required:"true"`
	} `positional-args:"true"`
}

func (c *cmdQuery) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(2, "%w", err)
	}
	mgr, err := loadPluginManager(cfg)
	if err != nil {
		return fail(2, "loading plugins: %w", err)
	}
	f := facade.New(facade.Options{
		Config:       cfg,
		Capabilities: capabilitiesFromPlugins(mgr),
		DataDir:      opts.DataDir,
	})
	resp := f.Query(context.Background(), c.Args.Text)
	printJSON(resp)
	if !resp.OK {
		return fail(1, "query: %s", resp.Error)
	}
	return nil
}
