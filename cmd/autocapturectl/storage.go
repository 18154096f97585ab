package main

import (
	"github.com/ninjra/autocapture-prime-sub005/internal/storagetool"
)

type cmdStorageMigrate struct {
	Src      string `long:"src" required:"true" description:"source tree root"`
	Dst      string `long:"dst" required:"true" description:"destination tree root"`
	DryRun   bool   `long:"dry-run" description:"compute hashes without copying"`
	NoVerify bool   `long:"no-verify" description:"skip post-copy sha256 verification"`
}

func (c *cmdStorageMigrate) Execute(_ []string) error {
	report, err := storagetool.Migrate(c.Src, c.Dst, c.DryRun, c.NoVerify)
	if err != nil {
		return fail(2, "storage migrate: %w", err)
	}
	printJSON(report)
	if !report.OK {
		return fail(1, "storage migrate: %d file(s) failed verification", len(report.Mismatches))
	}
	return nil
}

type cmdStorageForecast struct {
	Journal string `long:"journal" description:"disk.pressure journal path override"`
}

func (c *cmdStorageForecast) Execute(_ []string) error {
	path := c.Journal
	if path == "" {
		path = journalPath()
	}
	report, err := storagetool.Forecast(path)
	if err != nil {
		return fail(2, "storage forecast: %w", err)
	}
	printJSON(report)
	return nil
}
