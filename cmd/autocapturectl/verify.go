package main

import (
	"context"
	"os"

	"github.com/ninjra/autocapture-prime-sub005/internal/gate"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/metadata"
)

type cmdVerifyLedger struct {
	Path string `long:"path" description:"ledger NDJSON path override"`
}

func (c *cmdVerifyLedger) Execute(_ []string) error {
	path := c.Path
	if path == "" {
		path = ledgerPath()
	}
	return runGateStep(gate.LedgerVerifyStep(path))
}

type cmdVerifyAnchors struct {
	Path       string `long:"path" description:"anchor NDJSON path override"`
	LedgerPath string `long:"ledger" description:"ledger NDJSON path override"`
}

func (c *cmdVerifyAnchors) Execute(_ []string) error {
	path := c.Path
	if path == "" {
		path = anchorPath()
	}
	ledger := c.LedgerPath
	if ledger == "" {
		ledger = ledgerPath()
	}
	return runGateStep(gate.AnchorVerifyStep(path, ledger, nil))
}

type cmdVerifyEvidence struct {
	MetadataDB string `long:"metadata-db" description:"metadata sqlite path override"`
	MediaRoot  string `long:"media-root" description:"media blob root override"`
}

func (c *cmdVerifyEvidence) Execute(_ []string) error {
	metaPath := c.MetadataDB
	if metaPath == "" {
		metaPath = defaultMetadataPath()
	}
	mediaRoot := c.MediaRoot
	if mediaRoot == "" {
		mediaRoot = defaultMediaRoot()
	}
	metaStore, err := metadata.Open(metaPath)
	if err != nil {
		return fail(2, "opening metadata store: %w", err)
	}
	defer metaStore.Close()
	mediaStore, err := media.New(mediaRoot)
	if err != nil {
		return fail(2, "opening media store: %w", err)
	}
	return runGateStep(gate.EvidenceVerifyStep(metaStore, mediaStore))
}

func runGateStep(step gate.Step) error {
	report := gate.Run(context.Background(), []gate.Step{step})
	if opts.JSON {
		printJSON(report)
	} else {
		report.Print(os.Stdout)
	}
	if !report.OK {
		return fail(2, "%s failed", step.Name)
	}
	return nil
}
