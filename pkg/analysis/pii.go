package analysis

import "regexp"

// PII probes run over the unmodified text: structured identifiers like
// emails and SSNs are case- and format-sensitive, so no normalization is
// applied before matching.
var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Phone detection requires either international-prefix formatting or
	// separator-delimited grouping. A bare digit-run pattern flags incidental
	// numbers inside ordinary prose and must not be used here.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}`),
		regexp.MustCompile(`\(\d{3}\)[-.\s]?\d{3}[-.\s]\d{4}`),
		regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`),
	}

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// PIIDetector scans raw text for structured personal data. Stateless and
// safe for concurrent use.
type PIIDetector struct{}

// NewPIIDetector creates a PII detector.
func NewPIIDetector() *PIIDetector {
	return &PIIDetector{}
}

// Scan runs the three probes over the unmodified text. Each probe emits at
// most one issue regardless of how many occurrences exist. When any probe
// fires, a synthetic PiiGeneric issue is prepended so callers can test "any
// PII found" without enumerating categories.
func (d *PIIDetector) Scan(text string) []Issue {
	var issues []Issue

	if emailPattern.MatchString(text) {
		issues = append(issues, Issue{Category: CategoryPIIEmail, Detail: "Email address detected"})
	}

	for _, re := range phonePatterns {
		if re.MatchString(text) {
			issues = append(issues, Issue{Category: CategoryPIIPhone, Detail: "Phone number detected"})
			break
		}
	}

	if ssnPattern.MatchString(text) {
		issues = append(issues, Issue{Category: CategoryPIISSN, Detail: "Social Security Number detected"})
	}

	if len(issues) == 0 {
		return nil
	}

	return append([]Issue{{Category: CategoryPIIGeneric, Detail: "Personally identifiable information detected"}}, issues...)
}
