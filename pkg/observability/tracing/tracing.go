// Package tracing provides a thin OpenTelemetry helper for the analysis
// pipeline. The host process is responsible for installing an exporter; with
// no SDK configured these spans are no-ops.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ZivTalyas/huggingface-secure-proxy"

// StartAnalysisSpan starts a span for one content analysis.
func StartAnalysisSpan(ctx context.Context, kind, level string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "analysis.analyze",
		trace.WithAttributes(
			attribute.String("analysis.kind", kind),
			attribute.String("analysis.security_level", level),
		))
}

// EndAnalysisSpan annotates the span with the verdict and ends it.
func EndAnalysisSpan(span trace.Span, safe bool, confidence float64, issueCount int) {
	span.SetAttributes(
		attribute.Bool("analysis.is_safe", safe),
		attribute.Float64("analysis.confidence", confidence),
		attribute.Int("analysis.issue_count", issueCount),
	)
	span.End()
}
