// Command autocapturectl is the operator-facing CLI described in
// spec.md §6.3: ledger/anchor/evidence verification, storage
// maintenance, plugin inspection, the release gate, the health
// doctor, and ad-hoc querying, all wired against a shared --data-dir.
// Grounded on go/flowctl-go's nested AddCommand tree.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// globalOptions are the flags every subcommand reads through the
// shared bootstrap helpers in bootstrap.go.
type globalOptions struct {
	DataDir      string `long:"data-dir" env:"AUTOCAPTURE_DATA_DIR" default:"." description:"root data directory"`
	ConfigPath   string `long:"config" description:"path to a JSON configuration file"`
	LedgerPath   string `long:"ledger" description:"ledger NDJSON path (default <data-dir>/ledger.ndjson)"`
	AnchorPath   string `long:"anchors" description:"anchor NDJSON path (default <data-dir>/anchors.ndjson)"`
	LockfilePath string `long:"lockfile" description:"plugin lockfile path (default <data-dir>/plugins.lock.json)"`
	PluginsRoot  string `long:"plugins-root" description:"builtin plugin manifest root"`
	JSON         bool   `long:"json" description:"emit machine-readable JSON instead of text"`
}

var opts globalOptions

func main() {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	addCmd(parser, "doctor", "Print the component health matrix", "", &cmdDoctor{})
	addCmd(parser, "query", "Answer a free-text query over ingested sessions", "", &cmdQuery{})

	verify, err := parser.Command.AddCommand("verify", "Verify on-disk integrity", "", &struct{}{})
	mustAdd(err)
	addCmd(verify, "ledger", "Verify the ledger hash chain", "", &cmdVerifyLedger{})
	addCmd(verify, "anchors", "Verify ledger anchors", "", &cmdVerifyAnchors{})
	addCmd(verify, "evidence", "Verify metadata/projection alignment (media blobs are not checked)", "", &cmdVerifyEvidence{})

	storage, err := parser.Command.AddCommand("storage", "Storage maintenance", "", &struct{}{})
	mustAdd(err)
	addCmd(storage, "migrate", "Copy and sha256-verify a storage tree", "", &cmdStorageMigrate{})
	addCmd(storage, "forecast", "Project days of capacity remaining", "", &cmdStorageForecast{})

	plugins, err := parser.Command.AddCommand("plugins", "Extension plugin inspection", "", &struct{}{})
	mustAdd(err)
	addCmd(plugins, "list", "List discovered plugins", "", &cmdPluginsList{})
	addCmd(plugins, "verify-defaults", "Verify the required default plugin pack", "", &cmdPluginsVerifyDefaults{})

	gateGrp, err := parser.Command.AddCommand("gate", "Release gate", "", &struct{}{})
	mustAdd(err)
	addCmd(gateGrp, "run", "Run every configured gate step", "", &cmdGateRun{})

	research, err := parser.Command.AddCommand("research", "External research tooling", "", &struct{}{})
	mustAdd(err)
	addCmd(research, "run", "Shell out to the external research runner", "", &cmdExternalPassthrough{bin: "autocapture-research"})

	codex, err := parser.Command.AddCommand("codex", "External validator tooling", "", &struct{}{})
	mustAdd(err)
	addCmd(codex, "validate", "Shell out to the external codex validator", "", &cmdExternalPassthrough{bin: "codex"})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func addCmd(to interface {
	AddCommand(string, string, string, interface{}) (*flags.Command, error)
}, name, short, long string, data interface{}) *flags.Command {
	cmd, err := to.AddCommand(name, short, long, data)
	mustAdd(err)
	return cmd
}

func mustAdd(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "autocapturectl: ", err)
		os.Exit(2)
	}
}
