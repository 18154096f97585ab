// Package gate runs the named release/health checks the CLI's "gate
// run" subcommand and the facade's Verify method expose: ledger/anchor/
// evidence integrity, plugin lockfile coherence, and the q40-equivalent
// evaluation matrix. Each check is a Step so external tooling (a
// subprocess-driven check) and in-process checks share one runner and
// one report shape.
package gate

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/fatih/color"
)

// StepResult is one gate step's outcome.
type StepResult struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Err      string        `json:"error,omitempty"`
}

// Step is a named, independently timeable gate check.
type Step struct {
	Name    string
	Run     func(ctx context.Context) (*StepResult, error)
	Timeout time.Duration
}

// ExternalStep builds a Step that shells out to an external command,
// for CLI tools spec.md's §6.3 lists as subprocess-invoked rather than
// in-process (storage migrate, storage forecast).
func ExternalStep(name string, timeout time.Duration, command string, args ...string) Step {
	return Step{
		Name:    name,
		Timeout: timeout,
		Run: func(ctx context.Context) (*StepResult, error) {
			cmd := exec.CommandContext(ctx, command, args...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return &StepResult{Name: name, OK: false, Detail: string(out), Err: err.Error()}, nil
			}
			return &StepResult{Name: name, OK: true, Detail: string(out)}, nil
		},
	}
}

// Report is the aggregate outcome of running a set of Steps.
type Report struct {
	OK    bool         `json:"ok"`
	Steps []StepResult `json:"steps"`
}

// Run executes steps in order, stopping none early — every step always
// runs so a single failure doesn't hide unrelated regressions.
func Run(ctx context.Context, steps []Step) Report {
	report := Report{OK: true}
	for _, step := range steps {
		stepCtx := ctx
		cancel := func() {}
		if step.Timeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		}
		started := time.Now()
		result, err := step.Run(stepCtx)
		cancel()
		elapsed := time.Since(started)
		if result == nil {
			result = &StepResult{Name: step.Name}
		}
		result.Name = step.Name
		result.Duration = elapsed
		if err != nil {
			result.OK = false
			result.Err = err.Error()
		}
		if !result.OK {
			report.OK = false
		}
		report.Steps = append(report.Steps, *result)
	}
	return report
}

// Print writes a colorized pass/fail summary to w, one line per step,
// mirroring the teacher's console gate reporting.
func (r Report) Print(w interface{ Write([]byte) (int, error) }) {
	for _, step := range r.Steps {
		label := color.GreenString("PASS")
		if !step.OK {
			label = color.RedString("FAIL")
		}
		line := fmt.Sprintf("[%s] %-28s %s\n", label, step.Name, step.Detail)
		_, _ = w.Write([]byte(line))
	}
	overall := color.GreenString("OK")
	if !r.OK {
		overall = color.RedString("FAILED")
	}
	_, _ = w.Write([]byte(fmt.Sprintf("gate: %s\n", overall)))
}
