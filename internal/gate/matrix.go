package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// MatrixRow is one evaluated case in an evaluation-matrix artifact: a
// recorded query/answer result judged against an expected outcome.
// Shape generalizes original_source/tests/test_eval_q40_matrix.py's
// advanced/generic row contract to this module's query providers.
type MatrixRow struct {
	ID           string                 `json:"id"`
	Skipped      bool                   `json:"skipped,omitempty"`
	OK           bool                   `json:"ok"`
	Summary      string                 `json:"summary,omitempty"`
	AnswerState  string                 `json:"answer_state,omitempty"`
	Providers    []ProviderContribution `json:"providers,omitempty"`
	ExpectedEval ExpectedEval           `json:"expected_eval,omitempty"`
}

// ProviderContribution records one query provider's share of an answer.
type ProviderContribution struct {
	ProviderID     string `json:"provider_id"`
	ContributionBp int    `json:"contribution_bp"`
	ClaimCount     int    `json:"claim_count"`
	CitationCount  int    `json:"citation_count"`
}

// ExpectedEval is the golden-answer judgment attached to a row.
type ExpectedEval struct {
	Evaluated bool     `json:"evaluated"`
	Passed    bool     `json:"passed"`
	Reasons   []string `json:"reasons,omitempty"`
}

// MatrixArtifact is the on-disk shape of one evaluation batch (e.g. the
// result of running the query matrix against a fixed prompt set).
type MatrixArtifact struct {
	Rows []MatrixRow `json:"rows"`
}

// MatrixSummary is one artifact's pass/fail rollup.
type MatrixSummary struct {
	Total     int      `json:"total"`
	Evaluated int      `json:"evaluated"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	FailedIDs []string  `json:"failed_ids"`
	Reasons   []string  `json:"reasons,omitempty"`
	OK        bool      `json:"ok"`
}

// disallowedAnswerProviders mirrors STRICT_DISALLOWED_ANSWER_PROVIDERS:
// answer providers that must never contribute to a passing row, even
// incidentally (their presence signals a misconfigured fallback).
var disallowedAnswerProviders = map[string]bool{
	"builtin.answer.synth_vllm_localhost": true,
	"hard_vlm.direct":                     true,
}

func loadMatrixArtifact(path string) (MatrixArtifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MatrixArtifact{}, err
	}
	var artifact MatrixArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return MatrixArtifact{}, fmt.Errorf("gate: parse matrix artifact %s: %w", path, err)
	}
	return artifact, nil
}

func rowContractErrors(row MatrixRow) []string {
	var errs []string
	if row.Skipped {
		return nil
	}
	if !row.OK {
		errs = append(errs, "query_failed")
	}
	switch row.AnswerState {
	case "ok", "partial", "no_evidence":
	default:
		errs = append(errs, "invalid_answer_state")
	}
	if !row.ExpectedEval.Passed {
		errs = append(errs, "expected_eval_failed")
	}
	if row.AnswerState == "ok" && len(row.Providers) == 0 {
		errs = append(errs, "ok_without_provider_contributions")
	}
	var positive, nonDisallowedPositive int
	disallowedActive := false
	for _, p := range row.Providers {
		if p.ProviderID == "" {
			continue
		}
		if p.ContributionBp > 0 {
			positive++
			if !disallowedAnswerProviders[p.ProviderID] {
				nonDisallowedPositive++
			}
		}
		if disallowedAnswerProviders[p.ProviderID] && (p.ContributionBp > 0 || p.ClaimCount > 0 || p.CitationCount > 0) {
			disallowedActive = true
		}
	}
	if row.AnswerState == "ok" && positive == 0 {
		errs = append(errs, "ok_without_positive_provider_contribution")
	}
	if row.AnswerState == "ok" && nonDisallowedPositive == 0 {
		errs = append(errs, "ok_without_non_disallowed_positive_provider_contribution")
	}
	if disallowedActive {
		errs = append(errs, "disallowed_answer_provider_activity")
	}
	return errs
}

func summarizeMatrix(artifact MatrixArtifact) MatrixSummary {
	var failedIDs []string
	passed, skipped := 0, 0
	for _, row := range artifact.Rows {
		if row.Skipped {
			skipped++
			continue
		}
		if errs := rowContractErrors(row); len(errs) == 0 {
			passed++
		} else {
			failedIDs = append(failedIDs, row.ID)
		}
	}
	total := len(artifact.Rows)
	evaluated := total - skipped
	failed := evaluated - passed
	if failed < 0 {
		failed = 0
	}
	// strict mode: any skipped row fails the matrix outright, mirroring
	// eval_q40_matrix's strict-mode skipped check.
	var reasons []string
	if skipped > 0 {
		reasons = append(reasons, "strict_matrix_skipped_nonzero")
	}
	return MatrixSummary{
		Total:     total,
		Evaluated: evaluated,
		Passed:    passed,
		Failed:    failed,
		Skipped:   skipped,
		FailedIDs: failedIDs,
		Reasons:   reasons,
		OK:        failed == 0 && skipped == 0 && evaluated > 0 && evaluated <= total,
	}
}

// MatrixResult is the combined outcome across two evaluation artifacts
// (advanced-case and generic-case matrices), mirroring eval_q40_matrix's
// two-artifact combination.
type MatrixResult struct {
	Advanced MatrixSummary `json:"advanced"`
	Generic  MatrixSummary `json:"generic"`
	Reasons  []string      `json:"reasons,omitempty"`
	OK       bool          `json:"ok"`
}

// EvaluateMatrix loads the two evaluation artifacts and combines their
// summaries into one pass/fail verdict.
func EvaluateMatrix(advancedPath, genericPath string) (MatrixResult, error) {
	advanced, err := loadMatrixArtifact(advancedPath)
	if err != nil {
		return MatrixResult{}, err
	}
	generic, err := loadMatrixArtifact(genericPath)
	if err != nil {
		return MatrixResult{}, err
	}
	advSummary := summarizeMatrix(advanced)
	genSummary := summarizeMatrix(generic)
	var reasons []string
	reasons = append(reasons, advSummary.Reasons...)
	reasons = append(reasons, genSummary.Reasons...)
	return MatrixResult{
		Advanced: advSummary,
		Generic:  genSummary,
		Reasons:  reasons,
		OK:       advSummary.OK && genSummary.OK,
	}, nil
}

// MatrixStep builds the "matrix.q40" gate step.
func MatrixStep(advancedPath, genericPath string) Step {
	return Step{
		Name: "matrix.q40",
		Run: func(_ context.Context) (*StepResult, error) {
			result, err := EvaluateMatrix(advancedPath, genericPath)
			if err != nil {
				return nil, err
			}
			detail := fmt.Sprintf("advanced=%d/%d generic=%d/%d", result.Advanced.Passed, result.Advanced.Evaluated, result.Generic.Passed, result.Generic.Evaluated)
			if len(result.Reasons) > 0 {
				detail = fmt.Sprintf("%s reasons=%v", detail, result.Reasons)
			}
			return &StepResult{
				OK:     result.OK,
				Detail: detail,
			}, nil
		},
	}
}
