package analysis

import (
	"fmt"
	"math"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

// Signals are the independent detector outputs for one submission, gathered
// before aggregation.
type Signals struct {
	// SizeExceeded short-circuits everything else: the submission never
	// reached the detectors.
	SizeExceeded bool

	// ExtractionFailed short-circuits text analysis: there is no text.
	ExtractionFailed bool
	ExtractionDetail string

	RuleIssues []Issue
	PIIIssues  []Issue

	// RiskScore is the scorer's malicious probability, nil when the policy
	// skipped the scorer or it was unavailable.
	RiskScore *float64

	// ScorerDegraded is set when the policy required the scorer but it was
	// unavailable.
	ScorerDegraded bool

	// Structural carries document-level flags; nil for text submissions.
	Structural *StructuralFlags
}

// Combiner turns detector signals into one verdict under a policy. The
// subtraction-based default is isolated behind this interface so the
// combination scheme can be swapped without touching detectors.
type Combiner interface {
	Combine(sig Signals, policy config.LevelPolicy) AnalysisResult
}

// SubtractiveCombiner is the inherited score-subtraction aggregation: fixed
// penalties per detector class rather than weighted sums. Two simultaneous
// detector classes saturate the score to 0; that is observed behavior and is
// preserved deliberately.
type SubtractiveCombiner struct {
	RulePenalty        float64
	PIIPenalty         float64
	EmbeddedFileFactor float64
	ActiveScriptFactor float64
}

// NewSubtractiveCombiner builds the combiner from analysis configuration.
func NewSubtractiveCombiner(cfg *config.AnalysisConfig) *SubtractiveCombiner {
	return &SubtractiveCombiner{
		RulePenalty:        cfg.RulePenalty,
		PIIPenalty:         cfg.PIIPenalty,
		EmbeddedFileFactor: cfg.EmbeddedFileFactor,
		ActiveScriptFactor: cfg.ActiveScriptFactor,
	}
}

// Combine implements the aggregation algorithm. It is a pure function of its
// inputs: identical signals and policy always yield an identical result,
// which is what makes caching by content fingerprint sound.
func (c *SubtractiveCombiner) Combine(sig Signals, policy config.LevelPolicy) AnalysisResult {
	if sig.SizeExceeded {
		return AnalysisResult{
			IsSafe:          false,
			ConfidenceScore: 0,
			Issues:          []Issue{{Category: CategorySizeExceeded, Detail: "Payload size exceeds maximum allowed size"}},
			Summary:         "Analysis rejected: payload exceeds the size ceiling.",
		}
	}

	if sig.ExtractionFailed {
		detail := sig.ExtractionDetail
		if detail == "" {
			detail = "Document could not be processed"
		}
		return AnalysisResult{
			IsSafe:          false,
			ConfidenceScore: 0,
			Issues:          []Issue{{Category: CategoryExtractionFailure, Detail: detail}},
			Summary:         "Analysis rejected: document extraction failed.",
		}
	}

	confidence := 1.0

	// One fixed penalty per detector class; multiple categories firing
	// within a class do not compound.
	if len(sig.RuleIssues) > 0 {
		confidence -= c.RulePenalty
	}
	if len(sig.PIIIssues) > 0 {
		confidence -= c.PIIPenalty
	}
	ruleScore := clamp01(confidence)

	// Monotonic blend: a more malicious scorer signal can only lower
	// confidence, never raise it.
	llmScore := 1.0
	if sig.RiskScore != nil && policy.EnableRiskScorer {
		llmScore = 1 - clamp01(*sig.RiskScore)
		confidence *= 1 - policy.RiskWeight*clamp01(*sig.RiskScore)
	}

	issues := make([]Issue, 0, len(sig.RuleIssues)+len(sig.PIIIssues)+2)
	issues = append(issues, sig.RuleIssues...)
	issues = append(issues, sig.PIIIssues...)

	// Structural risk compounds with content risk, so the penalty is
	// multiplicative rather than additive.
	if sig.Structural != nil && policy.EnableStructural {
		if sig.Structural.HasEmbeddedFiles {
			confidence *= c.EmbeddedFileFactor
			issues = append(issues, Issue{Category: CategoryEmbeddedContent, Detail: "Document contains embedded files"})
		}
		if sig.Structural.HasActiveScripts {
			confidence *= c.ActiveScriptFactor
			issues = append(issues, Issue{Category: CategoryEmbeddedContent, Detail: "Document contains active scripting content"})
		}
	}

	// Going below zero is expected with two penalties; above one or NaN is a
	// programming defect worth flagging before the defensive clamp.
	if math.IsNaN(confidence) || confidence > 1 {
		logging.Errorf("Aggregation produced out-of-range confidence %v; clamping", confidence)
	}
	confidence = clamp01(confidence)

	result := AnalysisResult{
		IsSafe:          confidence >= policy.Threshold,
		ConfidenceScore: confidence,
		Issues:          issues,
		RuleScore:       ruleScore,
		LLMScore:        llmScore,
		Degraded:        sig.ScorerDegraded,
	}
	result.Summary = summarize(result, sig)
	return result
}

// summarize reports pass/fail plus counts. Pattern internals stay out of the
// summary so a caller probing the service cannot enumerate the rule set.
func summarize(result AnalysisResult, sig Signals) string {
	var s string
	switch {
	case len(result.Issues) == 0:
		s = "Content analysis completed. No security issues detected."
	case result.IsSafe:
		s = fmt.Sprintf("Content analysis completed. %d issue(s) noted; confidence above threshold.", len(result.Issues))
	default:
		s = fmt.Sprintf("Content analysis completed. Potential security issues identified (%d pattern, %d PII).",
			len(sig.RuleIssues), len(sig.PIIIssues))
	}
	if sig.ScorerDegraded {
		s += " Degraded: risk scorer unavailable, rule-only verdict."
	}
	return s
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
