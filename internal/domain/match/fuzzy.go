// Package match decides whether two differently spelled names refer to the
// same event. Fuzzy is the layered cascade used for event cross-linking;
// Loose is the narrower matcher used when reconciling timing records.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/olrank/internal/domain/text"
)

// Rule names the cascade step that decided a comparison.
type Rule string

// Cascade rules, in evaluation order.
const (
	RuleEmpty        Rule = "empty"
	RuleExact        Rule = "exact"
	RuleContains     Rule = "contains"
	RuleCoreExact    Rule = "core_exact"
	RuleCoreContains Rule = "core_contains"
	RuleToken        Rule = "token"
	RuleTrigram      Rule = "trigram"
	RuleNone         Rule = "none"
)

// Cascade thresholds.
const (
	minContains      = 4
	minCoreExact     = 3
	minCoreContains  = 4
	minTokenLen      = 3
	strongTokenLen   = 5
	minTrigramCore   = 5
	minTrigramRatio  = 0.65
	minTrigramCommon = 5
)

// Fuzzy reports whether a and b name the same event.
func Fuzzy(a, b string) bool {
	ok, _ := Explain(a, b)
	return ok
}

// Explain runs the cascade and returns the deciding rule. The result does
// not depend on argument order.
func Explain(a, b string) (bool, Rule) {
	x, y := newName(a), newName(b)
	if x.collapsed == "" || y.collapsed == "" {
		return false, RuleEmpty
	}
	if x.collapsed == y.collapsed {
		return true, RuleExact
	}
	short, long := order(x.collapsed, y.collapsed)
	if runeLen(short) >= minContains && strings.Contains(long, short) {
		return true, RuleContains
	}
	if x.core == y.core && runeLen(x.core) >= minCoreExact {
		return true, RuleCoreExact
	}
	shortCore, longCore := order(x.core, y.core)
	if runeLen(shortCore) >= minCoreContains && strings.Contains(longCore, shortCore) {
		return true, RuleCoreContains
	}
	if tokenOverlap(x, y) {
		return true, RuleToken
	}
	if runeLen(x.core) >= minTrigramCore && runeLen(y.core) >= minTrigramCore {
		common, ratio := trigramSimilarity(shortCore, longCore)
		if ratio >= minTrigramRatio && common >= minTrigramCommon {
			return true, RuleTrigram
		}
	}
	return false, RuleNone
}

type name struct {
	normalized string
	collapsed  string
	core       string
	tokens     []string
}

func newName(raw string) name {
	n := text.Normalize(raw)
	collapsed := text.Collapse(n)
	return name{
		normalized: n,
		collapsed:  collapsed,
		core:       text.Core(raw),
		tokens:     significantTokens(n),
	}
}

func significantTokens(normalized string) []string {
	var out []string
	for _, tok := range strings.Fields(normalized) {
		if runeLen(tok) < minTokenLen || text.IsStopWord(tok) || text.WithinStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// tokenOverlap holds when both sides contribute a token found in the other
// side, or when either side has a long token found in the other.
func tokenOverlap(x, y name) bool {
	xy := anyTokenIn(x.tokens, y.collapsed, minTokenLen)
	yx := anyTokenIn(y.tokens, x.collapsed, minTokenLen)
	if xy && yx {
		return true
	}
	return anyTokenIn(x.tokens, y.collapsed, strongTokenLen) || anyTokenIn(y.tokens, x.collapsed, strongTokenLen)
}

func anyTokenIn(tokens []string, s string, minLen int) bool {
	for _, tok := range tokens {
		if runeLen(tok) >= minLen && strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// order returns the shorter string first. Equal lengths are ordered
// lexically so the cascade is symmetric.
func order(a, b string) (string, string) {
	la, lb := runeLen(a), runeLen(b)
	if la < lb || (la == lb && a <= b) {
		return a, b
	}
	return b, a
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
