package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
)

type fakeScorer struct {
	score float64
	err   error
	calls int
}

func (f *fakeScorer) Score(_ context.Context, _ string) (float64, error) {
	f.calls++
	return f.score, f.err
}

type fakeExtractor struct {
	text  string
	flags *StructuralFlags
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (string, *StructuralFlags, error) {
	return f.text, f.flags, f.err
}

func testAnalysisConfig() *config.AnalysisConfig {
	cfg := &config.ProxyConfig{}
	cfg.ApplyDefaults()
	return &cfg.Analysis
}

func newTestEngine(t *testing.T, scorer RiskScorer, extractor DocumentExtractor) *Engine {
	t.Helper()
	engine, err := NewEngine(testAnalysisConfig(), scorer, extractor)
	require.NoError(t, err)
	return engine
}

func TestAnalyzeSafeText(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{score: 0}, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("This is a safe message."),
		Kind:    KindText,
		Level:   LevelHigh,
	})

	assert.True(t, result.IsSafe)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Empty(t, result.Issues)
	assert.False(t, result.Degraded)
}

func TestAnalyzeUnsafeText(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{score: 0}, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("' OR 1=1--"),
		Kind:    KindText,
		Level:   LevelHigh,
	})

	assert.False(t, result.IsSafe)
	assert.True(t, hasCategory(result.Issues, CategorySQLInjection))
}

func TestAnalyzeOversizePayload(t *testing.T) {
	cfg := testAnalysisConfig()
	cfg.MaxPayloadBytes = 8
	engine, err := NewEngine(cfg, nil, nil)
	require.NoError(t, err)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("well over eight bytes with ' OR 1=1--"),
		Kind:    KindText,
		Level:   LevelHigh,
	})

	assert.False(t, result.IsSafe)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategorySizeExceeded, result.Issues[0].Category)
}

func TestAnalyzeDocumentExtractionFailure(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{}, &fakeExtractor{err: errors.New("corrupt file")})

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte{0x01, 0x02},
		Kind:    KindDocument,
		Level:   LevelHigh,
	})

	assert.False(t, result.IsSafe)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategoryExtractionFailure, result.Issues[0].Category)
	assert.Contains(t, result.Issues[0].Detail, "corrupt file")
}

func TestAnalyzeDocumentWithoutExtractor(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{}, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("%PDF-1.7"),
		Kind:    KindDocument,
		Level:   LevelHigh,
	})

	assert.False(t, result.IsSafe)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CategoryExtractionFailure, result.Issues[0].Category)
}

func TestAnalyzeDocumentStructuralFlags(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{score: 0}, &fakeExtractor{
		text:  "harmless page text",
		flags: &StructuralFlags{HasEmbeddedFiles: true},
	})

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("%PDF-1.7 payload"),
		Kind:    KindDocument,
		Level:   LevelHigh,
	})

	assert.InDelta(t, 0.8, result.ConfidenceScore, 1e-9)
	assert.True(t, hasCategory(result.Issues, CategoryEmbeddedContent))
}

func TestAnalyzeScorerFailureDegrades(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{err: errors.New("model offline")}, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("This is a safe message."),
		Kind:    KindText,
		Level:   LevelHigh,
	})

	// Rule-only fallback: still a verdict, flagged as degraded.
	assert.True(t, result.IsSafe)
	assert.True(t, result.Degraded)
}

func TestAnalyzeLowLevelSkipsScorer(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("model offline")}
	engine := newTestEngine(t, scorer, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("This is a safe message."),
		Kind:    KindText,
		Level:   LevelLow,
	})

	assert.True(t, result.IsSafe)
	assert.False(t, result.Degraded)
	assert.Zero(t, scorer.calls)
}

func TestAnalyzeUnknownLevelDefaultsToHigh(t *testing.T) {
	scorer := &fakeScorer{score: 0}
	engine := newTestEngine(t, scorer, nil)

	engine.Analyze(context.Background(), Submission{
		Content: []byte("This is a safe message."),
		Kind:    KindText,
		Level:   SecurityLevel("nonsense"),
	})

	// The high policy consults the scorer; low would not.
	assert.Equal(t, 1, scorer.calls)
}

func TestAnalyzePIIOnlyInputFlagsNoInjectionCategory(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{score: 0}, nil)

	result := engine.Analyze(context.Background(), Submission{
		Content: []byte("Contact me at john@example.com"),
		Kind:    KindText,
		Level:   LevelHigh,
	})

	assert.True(t, hasCategory(result.Issues, CategoryPIIEmail))
	assert.True(t, hasCategory(result.Issues, CategoryPIIGeneric))
	for _, issue := range result.Issues {
		switch issue.Category {
		case CategoryPIIEmail, CategoryPIIGeneric:
		default:
			t.Errorf("unexpected category %s for PII-only input", issue.Category)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	engine := newTestEngine(t, &fakeScorer{score: 0.3}, nil)
	sub := Submission{
		Content: []byte("' OR 1=1-- with user@example.com"),
		Kind:    KindText,
		Level:   LevelHigh,
	}

	first := engine.Analyze(context.Background(), sub)
	second := engine.Analyze(context.Background(), sub)

	assert.Equal(t, first.ConfidenceScore, second.ConfidenceScore)
	assert.Equal(t, first.Issues, second.Issues)
	assert.Equal(t, first.Summary, second.Summary)
}
