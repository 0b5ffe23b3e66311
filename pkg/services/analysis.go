// Package services wires the analysis engine, the result cache and the
// policy configuration into the request-level operations the API exposes.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/analysis"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/cache"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/extract"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/metrics"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/tracing"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/scoring"
)

// Global analysis service instance
var (
	globalAnalysisService *AnalysisService
	globalMu              sync.RWMutex
)

// AnalysisService provides the validate-text and validate-file operations.
// The engine it holds is immutable; configuration updates swap in a freshly
// built engine while in-flight requests finish on their snapshot.
type AnalysisService struct {
	mu     sync.RWMutex
	engine *analysis.Engine
	cfg    *config.ProxyConfig

	store cache.ResultStore
}

// NewAnalysisService builds the service from configuration: scorer backend,
// document extractor, analysis engine and result cache.
func NewAnalysisService(cfg *config.ProxyConfig) (*AnalysisService, error) {
	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(cache.StoreConfig{
		Backend: cache.BackendType(cfg.Cache.Backend),
		Enabled: cfg.Cache.Enabled,
		Memory:  cache.MemoryConfig{MaxEntries: cfg.Cache.Memory.MaxEntries},
		Redis: cache.RedisConfig{
			Address:   cfg.Cache.Redis.Address,
			Database:  cfg.Cache.Redis.Database,
			Password:  cfg.Cache.Redis.Password,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	service := &AnalysisService{
		engine: engine,
		cfg:    cfg,
		store:  store,
	}

	globalMu.Lock()
	globalAnalysisService = service
	globalMu.Unlock()

	return service, nil
}

// buildEngine constructs an engine snapshot from configuration.
func buildEngine(cfg *config.ProxyConfig) (*analysis.Engine, error) {
	var scorer analysis.RiskScorer
	switch cfg.Scorer.Backend {
	case "static":
		scorer = &scoring.StaticScorer{Value: cfg.Scorer.StaticScore}
	case "disabled":
		scorer = &scoring.DisabledScorer{}
	default:
		scorer = scoring.NewDefaultLogisticScorer()
	}

	engine, err := analysis.NewEngine(&cfg.Analysis, scorer, extract.NewDocumentExtractor())
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis engine: %w", err)
	}
	return engine, nil
}

// GetGlobalAnalysisService returns the global analysis service instance.
func GetGlobalAnalysisService() *AnalysisService {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalAnalysisService
}

// WatchConfigUpdates rebuilds the engine whenever the global configuration
// is replaced. Runs until the context is cancelled.
func (s *AnalysisService) WatchConfigUpdates(ctx context.Context) {
	updates := config.WatchConfigUpdates()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-updates:
			engine, err := buildEngine(cfg)
			if err != nil {
				logging.Errorf("Config update rejected, keeping previous engine: %v", err)
				continue
			}
			s.mu.Lock()
			s.engine = engine
			s.cfg = cfg
			s.mu.Unlock()
			logging.Infof("Analysis engine rebuilt from updated config (patterns %s)", engine.PatternVersion())
		}
	}
}

// Reload swaps in a new configuration immediately. Used by the config API.
func (s *AnalysisService) Reload(cfg *config.ProxyConfig) error {
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.engine = engine
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *AnalysisService) snapshot() (*analysis.Engine, *config.ProxyConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.cfg
}

// Config returns the active configuration snapshot.
func (s *AnalysisService) Config() *config.ProxyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Store exposes the result cache for the info endpoints.
func (s *AnalysisService) Store() cache.ResultStore {
	return s.store
}

// TextRequest is a request to validate raw text.
type TextRequest struct {
	Text          string `json:"text"`
	SecurityLevel string `json:"security_level,omitempty"`
}

// FileRequest is a request to validate a base64-encoded file payload.
type FileRequest struct {
	File          string `json:"file"`
	Filename      string `json:"filename,omitempty"`
	SecurityLevel string `json:"security_level,omitempty"`
}

// ValidationResult is the outbound verdict shape.
type ValidationResult struct {
	Status           string        `json:"status"`
	Reason           string        `json:"reason"`
	RuleScore        float64       `json:"rule_score"`
	LLMScore         float64       `json:"llm_score"`
	OverallScore     float64       `json:"overall_score"`
	DetectedIssues   []IssueDetail `json:"detected_issues"`
	AnalysisSummary  string        `json:"analysis_summary"`
	SecurityLevel    string        `json:"security_level"`
	Degraded         bool          `json:"degraded,omitempty"`
	Cached           bool          `json:"cached"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// IssueDetail is one detected issue in the outbound shape.
type IssueDetail struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

// ValidateText analyzes a text submission.
func (s *AnalysisService) ValidateText(ctx context.Context, req TextRequest) (*ValidationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return inputErrorResult("empty_input", req.SecurityLevel), nil
	}
	return s.validate(ctx, []byte(req.Text), analysis.KindText, req.SecurityLevel)
}

// ValidateFile analyzes a base64-encoded file submission. Invalid base64 is
// an input error reported as an unsafe verdict, never a server error.
func (s *AnalysisService) ValidateFile(ctx context.Context, req FileRequest) (*ValidationResult, error) {
	if req.File == "" {
		return inputErrorResult("empty_input", req.SecurityLevel), nil
	}

	data, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		return inputErrorResult("invalid_base64", req.SecurityLevel), nil
	}

	return s.validate(ctx, data, analysis.KindDocument, req.SecurityLevel)
}

// validate runs one submission through cache lookup, the engine, and cache
// fill.
func (s *AnalysisService) validate(ctx context.Context, content []byte, kind analysis.ContentKind, levelName string) (*ValidationResult, error) {
	start := time.Now()
	level := analysis.ParseSecurityLevel(levelName)

	engine, cfg := s.snapshot()

	ctx, span := tracing.StartAnalysisSpan(ctx, string(kind), string(level))

	key := cache.Fingerprint(string(kind), string(level), content)
	if s.store.IsEnabled() {
		if record, err := s.store.Get(ctx, key); err == nil {
			metrics.RecordCacheLookup(cfg.Cache.Backend, "hit")
			result := resultFromRecord(record)
			result.Cached = true
			result.ProcessingTimeMs = time.Since(start).Milliseconds()
			metrics.RecordAnalysis(string(kind), string(level), result.Status == "safe", time.Since(start).Seconds())
			tracing.EndAnalysisSpan(span, result.Status == "safe", result.OverallScore, len(result.DetectedIssues))
			return result, nil
		} else if err != cache.ErrNotFound && err != cache.ErrStoreDisabled {
			metrics.RecordCacheLookup(cfg.Cache.Backend, "error")
			logging.Warnf("Cache lookup failed, analyzing directly: %v", err)
		} else {
			metrics.RecordCacheLookup(cfg.Cache.Backend, "miss")
		}
	}

	verdict := engine.Analyze(ctx, analysis.Submission{
		Content: content,
		Kind:    kind,
		Level:   level,
	})

	if verdict.Degraded {
		metrics.ScorerDegraded.Inc()
	}
	for _, issue := range verdict.Issues {
		metrics.RecordIssue(string(issue.Category))
	}

	result := resultFromVerdict(&verdict, string(level))
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	if s.store.IsEnabled() {
		ttl := time.Duration(cfg.Cache.TextTTLSeconds) * time.Second
		if kind == analysis.KindDocument {
			ttl = time.Duration(cfg.Cache.FileTTLSeconds) * time.Second
		}
		if err := s.store.Set(ctx, key, recordFromResult(result, string(kind)), ttl); err != nil {
			logging.Warnf("Failed to cache analysis result: %v", err)
		}
	}

	metrics.RecordAnalysis(string(kind), string(level), verdict.IsSafe, time.Since(start).Seconds())
	tracing.EndAnalysisSpan(span, verdict.IsSafe, verdict.ConfidenceScore, len(verdict.Issues))

	return result, nil
}

// inputErrorResult is the verdict for input errors: unsafe with a specific
// reason, zero scores, no issues.
func inputErrorResult(reason, levelName string) *ValidationResult {
	return &ValidationResult{
		Status:          "unsafe",
		Reason:          reason,
		SecurityLevel:   string(analysis.ParseSecurityLevel(levelName)),
		DetectedIssues:  []IssueDetail{},
		AnalysisSummary: "Submission rejected before analysis: " + reason + ".",
	}
}

func resultFromVerdict(v *analysis.AnalysisResult, level string) *ValidationResult {
	status := "unsafe"
	reason := buildReason(v)
	if v.IsSafe {
		status = "safe"
	}

	issues := make([]IssueDetail, 0, len(v.Issues))
	for _, issue := range v.Issues {
		issues = append(issues, IssueDetail{Category: string(issue.Category), Detail: issue.Detail})
	}

	return &ValidationResult{
		Status:          status,
		Reason:          reason,
		RuleScore:       v.RuleScore,
		LLMScore:        v.LLMScore,
		OverallScore:    v.ConfidenceScore,
		DetectedIssues:  issues,
		AnalysisSummary: v.Summary,
		SecurityLevel:   level,
		Degraded:        v.Degraded,
	}
}

// buildReason lists the distinct issue categories on an unsafe verdict, or
// "safe". Categories only: specific pattern details stay in the issue list.
func buildReason(v *analysis.AnalysisResult) string {
	if v.IsSafe {
		return "safe"
	}
	if len(v.Issues) == 0 {
		return "below_threshold"
	}

	seen := make(map[string]bool)
	var categories []string
	for _, issue := range v.Issues {
		cat := string(issue.Category)
		if !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}
	return strings.Join(categories, ", ")
}

func recordFromResult(r *ValidationResult, kind string) *cache.Record {
	issues := make([]cache.IssueRecord, 0, len(r.DetectedIssues))
	for _, issue := range r.DetectedIssues {
		issues = append(issues, cache.IssueRecord{Category: issue.Category, Detail: issue.Detail})
	}
	return &cache.Record{
		Status:          r.Status,
		Reason:          r.Reason,
		RuleScore:       r.RuleScore,
		LLMScore:        r.LLMScore,
		OverallScore:    r.OverallScore,
		DetectedIssues:  issues,
		AnalysisSummary: r.AnalysisSummary,
		Degraded:        r.Degraded,
		SecurityLevel:   r.SecurityLevel,
		Kind:            kind,
		CachedAt:        time.Now().UTC(),
	}
}

func resultFromRecord(rec *cache.Record) *ValidationResult {
	issues := make([]IssueDetail, 0, len(rec.DetectedIssues))
	for _, issue := range rec.DetectedIssues {
		issues = append(issues, IssueDetail{Category: issue.Category, Detail: issue.Detail})
	}
	return &ValidationResult{
		Status:          rec.Status,
		Reason:          rec.Reason,
		RuleScore:       rec.RuleScore,
		LLMScore:        rec.LLMScore,
		OverallScore:    rec.OverallScore,
		DetectedIssues:  issues,
		AnalysisSummary: rec.AnalysisSummary,
		SecurityLevel:   rec.SecurityLevel,
		Degraded:        rec.Degraded,
	}
}

// Close releases service resources.
func (s *AnalysisService) Close() error {
	return s.store.Close()
}
