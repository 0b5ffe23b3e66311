// Package api exposes the analysis service over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/services"
)

// AnalysisAPIServer holds the server state and dependencies.
type AnalysisAPIServer struct {
	analysisSvc *services.AnalysisService
	config      *config.ProxyConfig
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// AnalysisConfigView is the JSON shape of the tunable analysis settings.
// The on-disk configuration is YAML; this view keeps the HTTP surface
// independent of the file format.
type AnalysisConfigView struct {
	MaxPayloadBytes    int                        `json:"max_payload_bytes"`
	RulePenalty        float64                    `json:"rule_penalty"`
	PIIPenalty         float64                    `json:"pii_penalty"`
	EmbeddedFileFactor float64                    `json:"embedded_file_factor"`
	ActiveScriptFactor float64                    `json:"active_script_factor"`
	Levels             map[string]LevelPolicyView `json:"levels"`
	PatternVersion     string                     `json:"pattern_version,omitempty"`
}

// LevelPolicyView is the JSON shape of one security level policy.
type LevelPolicyView struct {
	Threshold        float64 `json:"threshold"`
	EnableRiskScorer bool    `json:"enable_risk_scorer"`
	RiskWeight       float64 `json:"risk_weight"`
	EnableStructural bool    `json:"enable_structural"`
}

// CacheInfoResponse is the cache info endpoint payload.
type CacheInfoResponse struct {
	Enabled   bool   `json:"enabled"`
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
	Entries   int64  `json:"entries"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
}

// StartAnalysisAPI starts the analysis API server. Blocks until the server
// stops.
func StartAnalysisAPI(cfg *config.ProxyConfig, svc *services.AnalysisService) error {
	apiServer := &AnalysisAPIServer{
		analysisSvc: svc,
		config:      cfg,
	}

	mux := apiServer.setupRoutes()
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	logging.Infof("Analysis API server listening on port %d", cfg.Server.Port)
	return server.ListenAndServe()
}

// setupRoutes configures all API routes.
func (s *AnalysisAPIServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and metrics endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Analysis endpoints
	mux.HandleFunc("POST /api/v1/analyze/text", s.handleAnalyzeText)
	mux.HandleFunc("POST /api/v1/analyze/file", s.handleAnalyzeFile)

	// Configuration endpoints
	mux.HandleFunc("GET /config/analysis", s.handleGetConfig)
	mux.HandleFunc("PUT /config/analysis", s.handleUpdateConfig)

	// Cache endpoints
	mux.HandleFunc("GET /cache/info", s.handleCacheInfo)
	mux.HandleFunc("DELETE /cache", s.handleCacheFlush)

	return mux
}

// handleHealth reports liveness plus cache backend reachability. A broken
// cache degrades the response but stays 200: analysis still works without it.
func (s *AnalysisAPIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "healthy",
		Checks: map[string]string{"analysis": "ok"},
	}

	store := s.analysisSvc.Store()
	if store.IsEnabled() {
		if err := store.CheckConnection(r.Context()); err != nil {
			resp.Checks["cache"] = "unreachable"
		} else {
			resp.Checks["cache"] = "ok"
		}
	} else {
		resp.Checks["cache"] = "disabled"
	}

	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleAnalyzeText handles text analysis requests.
func (s *AnalysisAPIServer) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req services.TextRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	result, err := s.analysisSvc.ValidateText(r.Context(), req)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "ANALYSIS_ERROR", err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// handleAnalyzeFile handles base64 file analysis requests.
func (s *AnalysisAPIServer) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	var req services.FileRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	result, err := s.analysisSvc.ValidateFile(r.Context(), req)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "ANALYSIS_ERROR", err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// handleGetConfig returns the active analysis settings.
func (s *AnalysisAPIServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.analysisSvc.Config()
	s.writeJSONResponse(w, http.StatusOK, viewFromConfig(&cfg.Analysis))
}

// handleUpdateConfig replaces the tunable analysis settings. The update is
// validated against the full configuration before it takes effect; a rejected
// update leaves the running engine untouched.
func (s *AnalysisAPIServer) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var view AnalysisConfigView
	if err := s.parseJSONRequest(r, &view); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	current := s.analysisSvc.Config()
	updated := *current
	applyView(&updated.Analysis, &view)

	if err := updated.Validate(); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	if err := s.analysisSvc.Reload(&updated); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	config.Replace(&updated)

	logging.Infof("Analysis configuration updated via API")
	s.writeJSONResponse(w, http.StatusOK, viewFromConfig(&updated.Analysis))
}

// handleCacheInfo reports cache backend statistics.
func (s *AnalysisAPIServer) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	store := s.analysisSvc.Store()

	stats, err := store.Stats(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "CACHE_ERROR", err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, CacheInfoResponse{
		Enabled:   store.IsEnabled(),
		Backend:   stats.Backend,
		Connected: stats.Connected,
		Entries:   stats.Entries,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
	})
}

// handleCacheFlush removes every cached verdict.
func (s *AnalysisAPIServer) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.analysisSvc.Store().Flush(r.Context()); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "CACHE_ERROR", err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func viewFromConfig(cfg *config.AnalysisConfig) AnalysisConfigView {
	levels := make(map[string]LevelPolicyView, len(cfg.Levels))
	for name, pol := range cfg.Levels {
		levels[name] = LevelPolicyView{
			Threshold:        pol.Threshold,
			EnableRiskScorer: pol.EnableRiskScorer,
			RiskWeight:       pol.RiskWeight,
			EnableStructural: pol.EnableStructural,
		}
	}
	return AnalysisConfigView{
		MaxPayloadBytes:    cfg.MaxPayloadBytes,
		RulePenalty:        cfg.RulePenalty,
		PIIPenalty:         cfg.PIIPenalty,
		EmbeddedFileFactor: cfg.EmbeddedFileFactor,
		ActiveScriptFactor: cfg.ActiveScriptFactor,
		Levels:             levels,
	}
}

// applyView copies non-zero view fields onto the analysis config. Levels are
// replaced wholesale when present so a PUT cannot leave a half-edited table.
func applyView(cfg *config.AnalysisConfig, view *AnalysisConfigView) {
	if view.MaxPayloadBytes > 0 {
		cfg.MaxPayloadBytes = view.MaxPayloadBytes
	}
	if view.RulePenalty > 0 {
		cfg.RulePenalty = view.RulePenalty
	}
	if view.PIIPenalty > 0 {
		cfg.PIIPenalty = view.PIIPenalty
	}
	if view.EmbeddedFileFactor > 0 {
		cfg.EmbeddedFileFactor = view.EmbeddedFileFactor
	}
	if view.ActiveScriptFactor > 0 {
		cfg.ActiveScriptFactor = view.ActiveScriptFactor
	}
	if len(view.Levels) > 0 {
		levels := make(map[string]config.LevelPolicy, len(view.Levels))
		for name, pol := range view.Levels {
			levels[name] = config.LevelPolicy{
				Threshold:        pol.Threshold,
				EnableRiskScorer: pol.EnableRiskScorer,
				RiskWeight:       pol.RiskWeight,
				EnableStructural: pol.EnableStructural,
			}
		}
		cfg.Levels = levels
	}
}

func (s *AnalysisAPIServer) parseJSONRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func (s *AnalysisAPIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *AnalysisAPIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":      errorCode,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.writeJSONResponse(w, statusCode, errorResponse)
}
