package analysis

import (
	"context"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

// RiskScorer is the narrow contract to the learned-model collaborator. Any
// error is treated as "unavailable" and degrades the verdict rather than
// failing the analysis; a scorer must never silently report safe.
type RiskScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// DocumentExtractor is the narrow contract to the document-parsing
// collaborator.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte) (string, *StructuralFlags, error)
}

// Engine runs the full analysis pipeline for one submission. An engine holds
// only immutable state after construction (compiled pattern tables, policy
// snapshot, injected collaborators) and performs no I/O of its own beyond
// invoking those collaborators, so independent submissions are fully
// parallelizable with no locking. Configuration changes are applied by
// building a new engine and swapping it in; in-flight analyses finish
// against the snapshot they started with.
type Engine struct {
	rules     *RuleEngine
	pii       *PIIDetector
	combiner  Combiner
	scorer    RiskScorer
	extractor DocumentExtractor

	maxPayloadBytes int
	cfg             config.AnalysisConfig
}

// NewEngine builds an engine from configuration and collaborators. The
// scorer and extractor may be nil when the deployment disables them; the
// policy decides whether they are consulted.
func NewEngine(cfg *config.AnalysisConfig, scorer RiskScorer, extractor DocumentExtractor) (*Engine, error) {
	rules, err := NewRuleEngineFromConfig(cfg.PatternTables)
	if err != nil {
		return nil, err
	}

	return &Engine{
		rules:           rules,
		pii:             NewPIIDetector(),
		combiner:        NewSubtractiveCombiner(cfg),
		scorer:          scorer,
		extractor:       extractor,
		maxPayloadBytes: cfg.MaxPayloadBytes,
		cfg:             *cfg,
	}, nil
}

// PatternVersion returns the rule table revision the engine was built from.
func (e *Engine) PatternVersion() string {
	return e.rules.Version()
}

// Analyze produces the safety verdict for one submission. It never returns
// an error: every failure mode is folded into the verdict as an issue, per
// the propagation policy that detector-level failures are recovered locally.
func (e *Engine) Analyze(ctx context.Context, sub Submission) AnalysisResult {
	policy := e.cfg.LevelPolicyFor(string(sub.Level))

	// Oversize submissions never reach the detectors.
	if len(sub.Content) > e.maxPayloadBytes {
		return e.combiner.Combine(Signals{SizeExceeded: true}, policy)
	}

	var (
		text       string
		structural *StructuralFlags
	)

	switch sub.Kind {
	case KindDocument:
		if e.extractor == nil {
			return e.combiner.Combine(Signals{
				ExtractionFailed: true,
				ExtractionDetail: "No document extractor configured",
			}, policy)
		}
		extracted, flags, err := e.extractor.Extract(ctx, sub.Content)
		if err != nil {
			logging.Debugf("Document extraction failed: %v", err)
			return e.combiner.Combine(Signals{
				ExtractionFailed: true,
				ExtractionDetail: "Error processing document: " + err.Error(),
			}, policy)
		}
		text = extracted
		structural = flags
	default:
		text = string(sub.Content)
	}

	sig := Signals{
		RuleIssues: e.rules.Scan(text),
		PIIIssues:  e.pii.Scan(text),
		Structural: structural,
	}

	if policy.EnableRiskScorer {
		if e.scorer == nil {
			sig.ScorerDegraded = true
		} else if score, err := e.scorer.Score(ctx, text); err != nil {
			logging.Warnf("Risk scorer unavailable, degrading to rule-only verdict: %v", err)
			sig.ScorerDegraded = true
		} else {
			sig.RiskScore = &score
		}
	}

	return e.combiner.Combine(sig, policy)
}
