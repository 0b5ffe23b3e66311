package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LogisticScorer is the built-in classifier backend: a logistic regression
// over the extracted feature vector. Weights are immutable after
// construction, so a scorer instance is safe for concurrent use.
type LogisticScorer struct {
	weights []float64
	bias    float64
}

// logisticModel is the on-disk weight file format.
type logisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// NewLogisticScorer creates a scorer with the given weights. The weight
// vector must match the feature width.
func NewLogisticScorer(weights []float64, bias float64) (*LogisticScorer, error) {
	if len(weights) != FeatureWidth {
		return nil, fmt.Errorf("weight vector has width %d, want %d", len(weights), FeatureWidth)
	}
	w := make([]float64, FeatureWidth)
	copy(w, weights)
	return &LogisticScorer{weights: w, bias: bias}, nil
}

// NewLogisticScorerFromFile loads model weights from a JSON file.
func NewLogisticScorerFromFile(path string) (*LogisticScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var model logisticModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	return NewLogisticScorer(model.Weights, model.Bias)
}

// NewDefaultLogisticScorer returns a scorer with the baked-in weights.
// The defaults lean on the symbol-density and casing features: attack
// payloads are short, dense in punctuation and irregular casing compared to
// prose.
func NewDefaultLogisticScorer() *LogisticScorer {
	weights := make([]float64, FeatureWidth)
	weights[featLength] = -0.2
	weights[featUppercaseRatio] = 1.4
	weights[featNonAlnumRatio] = 5.2
	weights[featWordCount] = -0.4
	weights[featAvgWordLength] = 0.12
	for i := 0; i < bigramBuckets; i++ {
		weights[featBigramBase+i] = 0.3
	}
	return &LogisticScorer{weights: weights, bias: -2.6}
}

// Score returns the malicious probability for the text.
func (s *LogisticScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if s.weights == nil {
		return 0, ErrUnavailable
	}

	features := ExtractFeatures(text)
	z := s.bias
	for i, w := range s.weights {
		z += w * features[i]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
