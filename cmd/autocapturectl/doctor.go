package main

import (
	"github.com/ninjra/autocapture-prime-sub005/internal/doctor"
)

type cmdDoctor struct{}

func (c *cmdDoctor) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(2, "%w", err)
	}
	mgr, err := loadPluginManager(cfg)
	if err != nil {
		return fail(2, "loading plugins: %w", err)
	}
	caps := capabilitiesFromPlugins(mgr)
	report := doctor.BuildHealthReport(caps, cfg, nil)
	printJSON(report)
	if !report.OK {
		return fail(1, "doctor: one or more components unhealthy")
	}
	return nil
}
