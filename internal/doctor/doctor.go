// Package doctor builds the component health matrix and overall
// health report used by operator tooling and the query façade's
// boot-failure path, without triggering heavy work. Grounded on
// original_source/autocapture_nx/kernel/doctor.py.
package doctor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// ComponentHealth is one row of the component matrix.
type ComponentHealth struct {
	Name         string  `json:"name"`
	OK           bool    `json:"ok"`
	Detail       string  `json:"detail"`
	LastErrorCode string `json:"last_error_code,omitempty"`
	CheckedAtUTC string  `json:"checked_at_utc"`
}

// Check is an additional best-effort health check folded into the
// "kernel" component (e.g. a plugin self-test).
type Check struct {
	Name string
	OK   bool
}

// BuildComponentMatrix evaluates each pipeline stage's required
// capabilities against caps, with capture optionally disabled when no
// capture modality is configured on.
func BuildComponentMatrix(caps *capability.Registry, cfg *config.Config, checks []Check) []ComponentHealth {
	checked := timebase.UTCNowZ()

	wantScreenshot := cfg.GetBool("capture.screenshot.enabled", false)
	wantAudio := cfg.GetBool("capture.audio.enabled", false)
	wantVideo := cfg.GetBool("capture.video.enabled", false)
	wantCapture := wantScreenshot || wantAudio || wantVideo

	var components []ComponentHealth

	if wantCapture {
		captureOK := caps.HasAny("capture.source", "capture.screenshot", "capture.audio")
		detail := "ok"
		if !captureOK {
			detail = "missing capture.source/capture.screenshot/capture.audio"
		}
		components = append(components, ComponentHealth{Name: "capture", OK: captureOK, Detail: detail, CheckedAtUTC: checked})
	} else {
		components = append(components, ComponentHealth{Name: "capture", OK: true, Detail: "disabled", CheckedAtUTC: checked})
	}

	components = append(components, presenceCheck(caps, checked, "ocr", "missing ocr.engine", "ocr.engine"))
	components = append(components, presenceCheck(caps, checked, "vlm", "missing vision.extractor", "vision.extractor"))
	components = append(components, presenceCheck(caps, checked, "indexing", "missing embedder.text or storage.metadata", "embedder.text", "storage.metadata"))
	components = append(components, presenceCheck(caps, checked, "retrieval", "missing retrieval.strategy", "retrieval.strategy"))
	components = append(components, presenceCheck(caps, checked, "answer", "missing answer.builder or citation.validator", "answer.builder", "citation.validator"))
	components = append(components, presenceCheck(caps, checked, "storage", "missing storage.metadata or storage.media", "storage.metadata", "storage.media"))
	components = append(components, presenceCheck(caps, checked, "ledger", "missing ledger.writer/journal.writer/anchor.writer", "ledger.writer", "journal.writer", "anchor.writer"))

	if len(checks) > 0 {
		var failedNames []string
		for _, c := range checks {
			if !c.OK {
				failedNames = append(failedNames, c.Name)
			}
		}
		ok := len(failedNames) == 0
		detail := "ok"
		if !ok {
			detail = "failed_checks:" + joinLimited(failedNames, 5)
		}
		components = append(components, ComponentHealth{Name: "kernel", OK: ok, Detail: detail, CheckedAtUTC: checked})
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })
	return components
}

func presenceCheck(caps *capability.Registry, checked, name, missingDetail string, ids ...string) ComponentHealth {
	ok := caps.HasAll(ids...)
	detail := "ok"
	if !ok {
		detail = missingDetail
	}
	return ComponentHealth{Name: name, OK: ok, Detail: detail, CheckedAtUTC: checked}
}

func joinLimited(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, ",")
}

// Summary is the top-level health counters.
type Summary struct {
	OK              bool   `json:"ok"`
	Code            string `json:"code"`
	ComponentsTotal int    `json:"components_total"`
	ComponentsOK    int    `json:"components_ok"`
	ChecksTotal     int    `json:"checks_total"`
	ChecksFailed    int    `json:"checks_failed"`
	Message         string `json:"message"`
}

// Report is the full health payload.
type Report struct {
	OK             bool              `json:"ok"`
	GeneratedAtUTC string            `json:"generated_at_utc"`
	Summary        Summary           `json:"summary"`
	Components     []ComponentHealth `json:"components"`
	Checks         []Check           `json:"checks"`
}

// BuildHealthReport composes the component matrix with the raw checks
// into a stable report.
func BuildHealthReport(caps *capability.Registry, cfg *config.Config, checks []Check) Report {
	generated := timebase.UTCNowZ()
	matrix := BuildComponentMatrix(caps, cfg, checks)

	componentsOK := 0
	var failedComponents []string
	for _, c := range matrix {
		if c.OK {
			componentsOK++
		} else {
			failedComponents = append(failedComponents, c.Name)
		}
	}
	checksFailed := 0
	var failedChecks []string
	for _, c := range checks {
		if !c.OK {
			checksFailed++
			failedChecks = append(failedChecks, c.Name)
		}
	}
	ok := len(failedComponents) == 0 && checksFailed == 0
	code := "ok"
	if !ok {
		code = "degraded"
	}

	message := "components_ok=" + strconv.Itoa(componentsOK) + "/" + strconv.Itoa(len(matrix)) +
		" checks_failed=" + strconv.Itoa(checksFailed) + "/" + strconv.Itoa(len(checks))
	if len(failedComponents) > 0 {
		message += " failed_components=" + joinLimited(failedComponents, 5)
	}
	if len(failedChecks) > 0 {
		message += " failed_checks=" + joinLimited(failedChecks, 5)
	}

	return Report{
		OK:             ok,
		GeneratedAtUTC: generated,
		Summary: Summary{
			OK:              ok,
			Code:            code,
			ComponentsTotal: len(matrix),
			ComponentsOK:    componentsOK,
			ChecksTotal:     len(checks),
			ChecksFailed:    checksFailed,
			Message:         message,
		},
		Components: matrix,
		Checks:     checks,
	}
}
