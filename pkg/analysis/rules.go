package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
)

// RuleEngine scans normalized text against the category-tagged pattern
// tables. It holds only immutable compiled state and is safe for concurrent
// use; hot reload is done by building a new engine and swapping it in.
type RuleEngine struct {
	categories []compiledCategory
	version    string
}

type compiledCategory struct {
	category           IssueCategory
	caseSensitive      bool
	includeMatchDetail bool
	message            string
	literals           []string
	regexps            []*regexp.Regexp
}

// NewRuleEngine compiles the given pattern tables. The table order is the
// evaluation order.
func NewRuleEngine(table []CategoryPatterns) (*RuleEngine, error) {
	engine := &RuleEngine{version: PatternTableVersion}

	for _, cat := range table {
		if cat.Category == "" {
			return nil, fmt.Errorf("pattern table entry with empty category")
		}

		compiled := compiledCategory{
			category:           cat.Category,
			caseSensitive:      cat.CaseSensitive,
			includeMatchDetail: cat.IncludeMatchDetail,
			message:            cat.Message,
		}

		for _, lit := range cat.Literals {
			if cat.CaseSensitive {
				compiled.literals = append(compiled.literals, lit)
			} else {
				compiled.literals = append(compiled.literals, strings.ToLower(lit))
			}
		}

		for _, expr := range cat.Regexps {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern %q for category %s: %w", expr, cat.Category, err)
			}
			compiled.regexps = append(compiled.regexps, re)
		}

		engine.categories = append(engine.categories, compiled)
	}

	return engine, nil
}

// NewRuleEngineFromConfig builds a rule engine from the built-in tables with
// any per-category overrides from configuration applied.
func NewRuleEngineFromConfig(overrides []config.PatternCategory) (*RuleEngine, error) {
	table := DefaultPatternTable()

	for _, ov := range overrides {
		found := false
		for i := range table {
			if string(table[i].Category) != ov.Category {
				continue
			}
			if len(ov.Literals) > 0 {
				table[i].Literals = ov.Literals
			}
			if len(ov.Regexps) > 0 {
				table[i].Regexps = ov.Regexps
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("pattern override for unknown category: %s", ov.Category)
		}
	}

	return NewRuleEngine(table)
}

// Version returns the pattern table revision this engine was built from.
func (e *RuleEngine) Version() string {
	return e.version
}

// Scan checks the text against every category in the fixed evaluation order.
// Within a category the first matching pattern flags it and scanning for
// that category stops; detection is never mutually exclusive across
// categories. The issue list and its order are deterministic for identical
// input.
func (e *RuleEngine) Scan(text string) []Issue {
	lowered := strings.ToLower(text)

	var issues []Issue
	for _, cat := range e.categories {
		view := lowered
		if cat.caseSensitive {
			view = text
		}

		if matched, pattern := cat.match(view); matched {
			detail := cat.message
			if cat.includeMatchDetail {
				detail = fmt.Sprintf("%s: %s", cat.message, pattern)
			}
			issues = append(issues, Issue{Category: cat.category, Detail: detail})
		}
	}

	return issues
}

// match returns the first pattern that hits, literals before regexps.
func (c *compiledCategory) match(view string) (bool, string) {
	for _, lit := range c.literals {
		if strings.Contains(view, lit) {
			return true, lit
		}
	}
	for _, re := range c.regexps {
		if re.MatchString(view) {
			return true, re.String()
		}
	}
	return false, ""
}
