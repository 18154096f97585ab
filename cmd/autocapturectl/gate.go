package main

import (
	"context"
	"os"

	"github.com/ninjra/autocapture-prime-sub005/internal/gate"
	"github.com/ninjra/autocapture-prime-sub005/internal/plugin"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/metadata"
)

type cmdGateRun struct {
	SkipEvidence   bool   `long:"skip-evidence" description:"omit the evidence.verify step"`
	SkipPlugins    bool   `long:"skip-plugins" description:"omit the plugins.verify-defaults step"`
	MatrixAdvanced string `long:"matrix-advanced" description:"advanced-case evaluation matrix artifact path"`
	MatrixGeneric  string `long:"matrix-generic" description:"generic-case evaluation matrix artifact path"`
}

func (c *cmdGateRun) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(2, "%w", err)
	}

	steps := []gate.Step{
		gate.LedgerVerifyStep(ledgerPath()),
		gate.AnchorVerifyStep(anchorPath(), ledgerPath(), nil),
	}

	if !c.SkipEvidence {
		metaStore, err := metadata.Open(defaultMetadataPath())
		if err == nil {
			mediaStore, err := media.New(defaultMediaRoot())
			if err == nil {
				steps = append(steps, gate.EvidenceVerifyStep(metaStore, mediaStore))
			}
		}
	}

	if !c.SkipPlugins {
		mgr, err := loadPluginManager(cfg)
		if err == nil {
			lf, err := plugin.LoadLockfile(lockfilePath())
			if err == nil {
				requiredIDs := cfg.GetStringSlice("plugins.default_pack")
				steps = append(steps, gate.PluginsVerifyDefaultsStep(mgr, lf, requiredIDs, nil))
			}
		}
	}

	if c.MatrixAdvanced != "" && c.MatrixGeneric != "" {
		steps = append(steps, gate.MatrixStep(c.MatrixAdvanced, c.MatrixGeneric))
	}

	report := gate.Run(context.Background(), steps)
	if opts.JSON {
		printJSON(report)
	} else {
		report.Print(os.Stdout)
	}
	if !report.OK {
		return fail(1, "gate run failed")
	}
	return nil
}
