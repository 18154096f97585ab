// Package facade is the single entry point CLI and any future UI
// surface call through: RunStart/Pause/Resume/Stop orchestrate the
// capture collector behind a consent gate, Query delegates to
// internal/query while translating boot/capability failures into the
// deterministic degraded payloads original_source/autocapture_nx's
// facade returned, and Verify delegates to internal/gate. Grounded on
// original_source/autocapture_nx/ux/facade.py.
package facade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/capture"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/consent"
	"github.com/ninjra/autocapture-prime-sub005/internal/gate"
	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
	"github.com/ninjra/autocapture-prime-sub005/internal/plugin"
	"github.com/ninjra/autocapture-prime-sub005/internal/query"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/metadata"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// Options wires every collaborator a Facade needs. Nil fields degrade
// gracefully: Query still returns a deterministic boot-failure payload,
// Verify steps that need a missing collaborator report an error
// rather than panicking.
type Options struct {
	Config        *config.Config
	Capabilities  *capability.Registry
	DataDir       string
	LedgerPath    string
	AnchorPath    string
	LedgerWriter  *ledger.Writer
	Journal       *ledger.Journal
	MetadataStore *metadata.Store
	MediaStore    *media.FileStore
	PluginManager *plugin.Manager
	Lockfile      plugin.Lockfile
	BootError     string // set when the caller's kernel boot already failed
}

// Facade is the orchestration surface described above.
type Facade struct {
	opts      Options
	collector *capture.Collector

	mu             sync.Mutex
	runActive      bool
	pausedUntilUTC *string
	pauseTimer     *time.Timer

	// collectorMu serializes collector.Start/Stop so the pause timer's
	// deferred RunStart can never race an explicit RunStart/RunStop/RunResume.
	collectorMu sync.Mutex
}

// New builds a Facade over opts. A nil Capabilities registry or nil
// Config is tolerated (Query/Verify degrade; RunStart reports errors).
func New(opts Options) *Facade {
	return &Facade{
		opts:      opts,
		collector: capture.NewCollector(opts.Capabilities, opts.Config),
	}
}

func (f *Facade) consentRequired() bool {
	if f.opts.Config == nil {
		return false
	}
	return f.opts.Config.GetBool("privacy.capture.require_consent", false)
}

// RunStart runs the consent gate and, if it passes, starts the
// capture collector. Matches run_start()'s consent-gate-then-start
// sequencing.
func (f *Facade) RunStart(ctx context.Context) capture.Result {
	f.mu.Lock()
	f.clearPauseLocked()
	f.mu.Unlock()

	if f.consentRequired() && !consent.Allowed(f.opts.DataDir) {
		return capture.Result{OK: false, Error: "consent_required"}
	}
	f.collectorMu.Lock()
	result := f.collector.Start(ctx)
	f.collectorMu.Unlock()
	f.mu.Lock()
	f.runActive = result.OK
	f.mu.Unlock()
	f.emit("capture.start", result)
	return result
}

// RunStop stops every running capture component.
func (f *Facade) RunStop() capture.Result {
	f.mu.Lock()
	f.clearPauseLocked()
	f.mu.Unlock()
	f.collectorMu.Lock()
	f.collector.Stop()
	f.collectorMu.Unlock()
	f.mu.Lock()
	f.runActive = false
	f.mu.Unlock()
	f.emit("capture.stop", capture.Result{OK: true})
	return capture.Result{OK: true}
}

// RunPause stops capture and schedules an automatic RunStart after
// minutes, mirroring run_pause()'s threading.Timer-backed resume.
func (f *Facade) RunPause(minutes float64) (pausedUntilUTC string) {
	f.collectorMu.Lock()
	f.collector.Stop()
	f.collectorMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runActive = false
	f.clearPauseLocked()
	if minutes <= 0 {
		return ""
	}
	until := time.Now().UTC().Add(time.Duration(minutes * float64(time.Minute)))
	untilStr := timebase.UTCISOZ(until)
	f.pausedUntilUTC = &untilStr
	f.pauseTimer = time.AfterFunc(time.Duration(minutes*float64(time.Minute)), func() {
		f.mu.Lock()
		f.pausedUntilUTC = nil
		f.pauseTimer = nil
		f.mu.Unlock()
		f.RunStart(context.Background())
	})
	return untilStr
}

// RunResume cancels any pending pause timer and restarts capture
// immediately.
func (f *Facade) RunResume(ctx context.Context) capture.Result {
	f.mu.Lock()
	f.clearPauseLocked()
	f.mu.Unlock()
	return f.RunStart(ctx)
}

func (f *Facade) clearPauseLocked() {
	if f.pauseTimer != nil {
		f.pauseTimer.Stop()
		f.pauseTimer = nil
	}
	f.pausedUntilUTC = nil
}

func (f *Facade) emit(event string, fields any) {
	if f.opts.Journal == nil {
		return
	}
	_ = f.opts.Journal.Emit(timebase.UTCNowZ(), event, fields)
}

// Status aggregates the run/ledger/capture facts the NX facade's
// status() returned, minus the kernel-internal scheduler fields this
// module has no equivalent of.
func (f *Facade) Status() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ledgerHead string
	if f.opts.LedgerPath != "" {
		if entries, err := ledger.ReadAll(f.opts.LedgerPath); err == nil && len(entries) > 0 {
			ledgerHead = entries[len(entries)-1].ThisHash
		}
	}
	return map[string]any{
		"ledger_head":     ledgerHead,
		"capture_active":  f.runActive,
		"paused_until_utc": f.pausedUntilUTC,
		"paused":          f.pausedUntilUTC != nil,
		"kernel_ready":    f.opts.BootError == "",
		"kernel_error":    f.opts.BootError,
	}
}

// Query answers text via internal/query, translating boot failure and
// missing-capability conditions into the deterministic payloads
// test_facade_query_boot_failure.py expects before ever reaching a
// provider.
func (f *Facade) Query(ctx context.Context, text string) query.Response {
	if f.opts.BootError != "" {
		return query.BootFailed(f.opts.BootError)
	}
	if missing := query.MissingCapabilities(f.opts.Capabilities); len(missing) > 0 {
		return query.CapabilityMissing(missing)
	}
	return query.Run(ctx, f.opts.DataDir, text, 10)
}

// Verify runs one gate step by name ("ledger", "anchors", or
// "evidence") and returns its result.
func (f *Facade) Verify(ctx context.Context, kind string) (*gate.StepResult, error) {
	switch kind {
	case "ledger":
		step := gate.LedgerVerifyStep(f.opts.LedgerPath)
		return runOne(ctx, step)
	case "anchors":
		step := gate.AnchorVerifyStep(f.opts.AnchorPath, f.opts.LedgerPath, nil)
		return runOne(ctx, step)
	case "evidence":
		if f.opts.MetadataStore == nil || f.opts.MediaStore == nil {
			return nil, fmt.Errorf("facade: evidence verification requires metadata and media stores")
		}
		step := gate.EvidenceVerifyStep(f.opts.MetadataStore, f.opts.MediaStore)
		return runOne(ctx, step)
	default:
		return nil, fmt.Errorf("facade: unknown verify kind %q", kind)
	}
}

func runOne(ctx context.Context, step gate.Step) (*gate.StepResult, error) {
	report := gate.Run(ctx, []gate.Step{step})
	if len(report.Steps) == 0 {
		return nil, fmt.Errorf("facade: gate step produced no result")
	}
	result := report.Steps[0]
	if result.Err != "" {
		return &result, fmt.Errorf("%s", result.Err)
	}
	return &result, nil
}
