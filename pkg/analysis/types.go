// Package analysis implements the content security analysis engine: the
// pattern rule engine, the PII detector and the score aggregator that turn a
// submission into a structured safety verdict.
package analysis

import "strings"

// IssueCategory is the fixed tag attached to every detected signal.
type IssueCategory string

const (
	CategorySQLInjection      IssueCategory = "sql_injection"
	CategoryXSS               IssueCategory = "xss"
	CategoryCommandInjection  IssueCategory = "command_injection"
	CategoryNoSQLInjection    IssueCategory = "nosql_injection"
	CategoryLDAPInjection     IssueCategory = "ldap_injection"
	CategoryPathTraversal     IssueCategory = "path_traversal"
	CategoryXMLXXE            IssueCategory = "xml_xxe"
	CategoryTemplateInjection IssueCategory = "template_injection"
	CategoryCodeExecution     IssueCategory = "code_execution"
	CategoryMalwareSignature  IssueCategory = "malware_signature"
	CategoryPIIEmail          IssueCategory = "pii_email"
	CategoryPIIPhone          IssueCategory = "pii_phone"
	CategoryPIISSN            IssueCategory = "pii_ssn"
	CategoryPIIGeneric        IssueCategory = "pii_generic"
	CategorySizeExceeded      IssueCategory = "size_exceeded"
	CategoryExtractionFailure IssueCategory = "extraction_failure"
	CategoryEmbeddedContent   IssueCategory = "embedded_content"
)

// Issue is one discrete detected signal. Issues are append-only
// observations; at most one issue is emitted per category per analysis.
type Issue struct {
	Category IssueCategory `json:"category"`
	Detail   string        `json:"detail"`
}

// ContentKind distinguishes raw text submissions from binary documents.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindDocument ContentKind = "document"
)

// SecurityLevel is the caller-selected policy name.
type SecurityLevel string

const (
	LevelHigh   SecurityLevel = "high"
	LevelMedium SecurityLevel = "medium"
	LevelLow    SecurityLevel = "low"
)

// ParseSecurityLevel normalizes a caller-supplied level name. Unknown or
// empty values default to high so a malformed request cannot weaken
// analysis.
func ParseSecurityLevel(s string) SecurityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium":
		return LevelMedium
	case "low":
		return LevelLow
	default:
		return LevelHigh
	}
}

// Submission is one unit of untrusted content to analyze. Immutable once
// created.
type Submission struct {
	Content []byte
	Kind    ContentKind
	Level   SecurityLevel
}

// AnalysisResult is the verdict for one submission. Never mutated after
// construction.
type AnalysisResult struct {
	IsSafe          bool    `json:"is_safe"`
	ConfidenceScore float64 `json:"confidence_score"`
	Issues          []Issue `json:"issues"`
	Summary         string  `json:"summary"`

	// RuleScore is the confidence contribution of the deterministic
	// detectors alone (pattern rules and PII), before the learned-model
	// blend and structural penalties.
	RuleScore float64 `json:"rule_score"`

	// LLMScore is the learned scorer's safety view (1 − malicious
	// probability); 1 when the policy skipped the scorer.
	LLMScore float64 `json:"llm_score"`

	// Degraded is set when the risk scorer was required by policy but
	// unavailable, and the verdict fell back to rule-only aggregation.
	Degraded bool `json:"degraded,omitempty"`
}

// StructuralFlags carries document-level properties the text scan cannot
// see. Reported by the document extractor after successful extraction.
type StructuralFlags struct {
	HasEmbeddedFiles bool
	HasActiveScripts bool
}
