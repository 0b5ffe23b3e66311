// Package scoring provides the learned risk scorer: a feature-extraction
// step feeding a binary classifier that estimates the probability that text
// is malicious. The engine depends on it only through the Score contract, so
// backends can be swapped without touching the detectors.
package scoring

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing model cannot produce a score.
// The scorer fails closed: it never silently reports "safe"; the aggregator
// is expected to fall back to rule-only scoring and annotate the verdict as
// degraded.
var ErrUnavailable = errors.New("risk scorer unavailable")

// RiskScorer estimates the probability in [0,1] that text is malicious.
type RiskScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// StaticScorer returns a fixed probability. Used as the deterministic stub
// backend and in tests.
type StaticScorer struct {
	Value float64
}

// Score returns the configured probability for any input.
func (s *StaticScorer) Score(_ context.Context, _ string) (float64, error) {
	return s.Value, nil
}

// DisabledScorer always reports unavailable, forcing degraded rule-only
// aggregation at levels that would otherwise consult the scorer.
type DisabledScorer struct{}

// Score always fails closed.
func (s *DisabledScorer) Score(_ context.Context, _ string) (float64, error) {
	return 0, ErrUnavailable
}
