package scoring

import (
	"strings"
	"unicode"
)

// Feature vector layout: scalar text statistics followed by a hashed bigram
// frequency histogram. The width is fixed so any backend model sees the same
// input shape.
const (
	bigramBuckets = 16

	// FeatureWidth is the fixed width of the extracted feature vector.
	FeatureWidth = 5 + bigramBuckets
)

// Scalar feature indexes.
const (
	featLength = iota
	featUppercaseRatio
	featNonAlnumRatio
	featWordCount
	featAvgWordLength
	featBigramBase
)

// lengthScale normalizes raw counts into a bounded range so no single
// feature dominates the linear term.
const lengthScale = 1024.0

// ExtractFeatures converts text into the fixed-width numeric vector consumed
// by the classifier backends. Deterministic: identical text yields an
// identical vector.
func ExtractFeatures(text string) []float64 {
	features := make([]float64, FeatureWidth)
	if len(text) == 0 {
		return features
	}

	runes := []rune(text)
	total := float64(len(runes))

	var upper, nonAlnum int
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			nonAlnum++
		}
	}

	words := strings.Fields(text)
	var wordLenSum int
	for _, w := range words {
		wordLenSum += len([]rune(w))
	}

	features[featLength] = total / lengthScale
	features[featUppercaseRatio] = float64(upper) / total
	features[featNonAlnumRatio] = float64(nonAlnum) / total
	features[featWordCount] = float64(len(words)) / lengthScale
	if len(words) > 0 {
		features[featAvgWordLength] = float64(wordLenSum) / float64(len(words))
	}

	// Hashed bigram frequency histogram.
	for i := 0; i+1 < len(runes); i++ {
		bucket := bigramBucket(runes[i], runes[i+1])
		features[featBigramBase+bucket] += 1 / total
	}

	return features
}

// bigramBucket hashes a rune pair into one of the fixed histogram buckets
// (FNV-1a over the two code points).
func bigramBucket(a, b rune) int {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for _, r := range [2]rune{a, b} {
		for shift := 0; shift < 32; shift += 8 {
			h ^= uint32(r>>shift) & 0xff
			h *= prime
		}
	}
	return int(h % bigramBuckets)
}
