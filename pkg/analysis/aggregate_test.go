package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
)

func testCombiner() *SubtractiveCombiner {
	return &SubtractiveCombiner{
		RulePenalty:        config.DefaultRulePenalty,
		PIIPenalty:         config.DefaultPIIPenalty,
		EmbeddedFileFactor: config.DefaultEmbeddedFileFactor,
		ActiveScriptFactor: config.DefaultActiveScriptFactor,
	}
}

func highPolicy() config.LevelPolicy {
	return config.DefaultLevels()["high"]
}

func lowPolicy() config.LevelPolicy {
	return config.DefaultLevels()["low"]
}

func ruleIssue() Issue {
	return Issue{Category: CategorySQLInjection, Detail: "Potential SQL injection attempt detected"}
}

func piiIssues() []Issue {
	return []Issue{
		{Category: CategoryPIIGeneric, Detail: "Personally identifiable information detected"},
		{Category: CategoryPIIEmail, Detail: "Email address detected"},
	}
}

func TestCombineCleanInput(t *testing.T) {
	result := testCombiner().Combine(Signals{}, highPolicy())

	assert.True(t, result.IsSafe)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Equal(t, 1.0, result.RuleScore)
	assert.Equal(t, 1.0, result.LLMScore)
	assert.Empty(t, result.Issues)
	assert.Contains(t, result.Summary, "No security issues")
}

func TestCombineRulePenalty(t *testing.T) {
	result := testCombiner().Combine(Signals{RuleIssues: []Issue{ruleIssue()}}, highPolicy())

	assert.False(t, result.IsSafe)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Equal(t, 0.5, result.RuleScore)
	assert.Len(t, result.Issues, 1)
}

func TestCombinePenaltyIsPerClassNotPerIssue(t *testing.T) {
	two := []Issue{ruleIssue(), {Category: CategoryXSS, Detail: "Potential XSS attack detected"}}
	result := testCombiner().Combine(Signals{RuleIssues: two}, highPolicy())

	// Two rule categories still cost one rule penalty.
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Len(t, result.Issues, 2)
}

func TestCombineBothClassesSaturateToZero(t *testing.T) {
	result := testCombiner().Combine(Signals{
		RuleIssues: []Issue{ruleIssue()},
		PIIIssues:  piiIssues(),
	}, highPolicy())

	assert.False(t, result.IsSafe)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Len(t, result.Issues, 3)
}

func TestCombineRiskScoreBlendIsMonotonic(t *testing.T) {
	combiner := testCombiner()
	policy := highPolicy()

	prev := 1.1
	for _, risk := range []float64{0, 0.25, 0.5, 0.75, 1} {
		r := risk
		result := combiner.Combine(Signals{RiskScore: &r}, policy)
		assert.LessOrEqual(t, result.ConfidenceScore, prev,
			"risk %v must not raise confidence", risk)
		prev = result.ConfidenceScore
	}

	// Exact blend at risk 0.5 with weight 0.6: 1 * (1 - 0.3).
	half := 0.5
	result := combiner.Combine(Signals{RiskScore: &half}, policy)
	assert.InDelta(t, 0.7, result.ConfidenceScore, 1e-9)
	assert.InDelta(t, 0.5, result.LLMScore, 1e-9)
	assert.Equal(t, 1.0, result.RuleScore)
}

func TestCombineRiskScoreIgnoredWhenPolicyDisablesIt(t *testing.T) {
	certain := 1.0
	result := testCombiner().Combine(Signals{RiskScore: &certain}, lowPolicy())

	assert.True(t, result.IsSafe)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Equal(t, 1.0, result.LLMScore)
}

func TestCombineStructuralPenalties(t *testing.T) {
	combiner := testCombiner()
	policy := highPolicy()

	result := combiner.Combine(Signals{
		Structural: &StructuralFlags{HasEmbeddedFiles: true},
	}, policy)
	assert.InDelta(t, 0.8, result.ConfidenceScore, 1e-9)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategoryEmbeddedContent, result.Issues[0].Category)

	result = combiner.Combine(Signals{
		Structural: &StructuralFlags{HasEmbeddedFiles: true, HasActiveScripts: true},
	}, policy)
	assert.InDelta(t, 0.56, result.ConfidenceScore, 1e-9)
	assert.Len(t, result.Issues, 2)
}

func TestCombineStructuralIgnoredWhenPolicyDisablesIt(t *testing.T) {
	result := testCombiner().Combine(Signals{
		Structural: &StructuralFlags{HasEmbeddedFiles: true, HasActiveScripts: true},
	}, lowPolicy())

	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Empty(t, result.Issues)
}

func TestCombineSizeExceededIsSoleIssue(t *testing.T) {
	result := testCombiner().Combine(Signals{
		SizeExceeded: true,
		RuleIssues:   []Issue{ruleIssue()},
		PIIIssues:    piiIssues(),
	}, highPolicy())

	assert.False(t, result.IsSafe)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategorySizeExceeded, result.Issues[0].Category)
}

func TestCombineExtractionFailureIsSoleIssue(t *testing.T) {
	result := testCombiner().Combine(Signals{
		ExtractionFailed: true,
		ExtractionDetail: "Error processing document: malformed PDF",
	}, highPolicy())

	assert.False(t, result.IsSafe)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategoryExtractionFailure, result.Issues[0].Category)
	assert.Contains(t, result.Issues[0].Detail, "malformed PDF")
}

func TestCombineDegradedAnnotation(t *testing.T) {
	result := testCombiner().Combine(Signals{ScorerDegraded: true}, highPolicy())

	assert.True(t, result.Degraded)
	assert.True(t, strings.Contains(result.Summary, "Degraded"), "summary %q", result.Summary)
}

func TestCombineSafeVerdictWithIssuesAtLowLevel(t *testing.T) {
	// At the low level the 0.5 rule penalty lands exactly on the 0.5
	// threshold, producing a safe verdict that still reports its issues.
	result := testCombiner().Combine(Signals{RuleIssues: []Issue{ruleIssue()}}, lowPolicy())

	assert.True(t, result.IsSafe)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Len(t, result.Issues, 1)
	assert.Contains(t, result.Summary, "confidence above threshold")
}

func TestCombineScoreStaysInRange(t *testing.T) {
	combiner := testCombiner()
	one := 1.0

	result := combiner.Combine(Signals{
		RuleIssues: []Issue{ruleIssue()},
		PIIIssues:  piiIssues(),
		RiskScore:  &one,
		Structural: &StructuralFlags{HasEmbeddedFiles: true, HasActiveScripts: true},
	}, highPolicy())

	assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
}
