package text

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	bracketTag = regexp.MustCompile(`【[^】]*】|\[[^\]]*\]|［[^］]*］|〔[^〕]*〕|《[^》]*》`)
	ordinal    = regexp.MustCompile(`第?[0-9一二三四五六七八九十百千]+回`)
	eraYear    = regexp.MustCompile(`(令和|平成|昭和)(元|[0-9]{1,2})(年度|年)?`)
	digitRun   = regexp.MustCompile(`[0-9]+(年度|年)?`)
	parenAside = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)
)

// punctuation is replaced by a single space. Brackets and parentheses are
// included so unbalanced leftovers never survive a pass.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" +
	"！＂＃＄％＆＇（）＊＋，－．／：；＜＝＞？＠［＼］＾＿｀｛｜｝～" +
	"、。・「」『』【】〔〕〈〉《》〜…‥“”‘’—–―‐−☆★◆◇■□●○◎※♪→"

var punctuationReplacer = newPunctuationReplacer() //nolint:gochecknoglobals // immutable table

func newPunctuationReplacer() *strings.Replacer {
	pairs := make([]string, 0, 2*utf8.RuneCountInString(punctuation))
	for _, r := range punctuation {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}

// Normalize returns the canonical comparison form of an event or
// organization name. ASCII case is preserved.
func Normalize(name string) string {
	s := FoldWidth(name)
	s = bracketTag.ReplaceAllString(s, " ")
	s = ordinal.ReplaceAllString(s, " ")
	s = eraYear.ReplaceAllString(s, " ")
	s = digitRun.ReplaceAllStringFunc(s, dropDateDigits)
	s = parenAside.ReplaceAllString(s, " ")
	s = punctuationReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// dropDateDigits blanks Gregorian years (19xx/20xx, optionally suffixed
// with 年 or 年度) and 8-digit YYYYMMDD dates. Other digit runs are kept.
func dropDateDigits(m string) string {
	digits := strings.TrimRightFunc(m, func(r rune) bool { return !unicode.IsDigit(r) })
	switch {
	case len(digits) == 8:
		return " "
	case len(digits) == 4 && (strings.HasPrefix(digits, "19") || strings.HasPrefix(digits, "20")):
		return " "
	}
	return m
}

// Collapse removes all whitespace.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// StopWords are administrative words that must not drive a match on their own.
var StopWords = []string{ //nolint:gochecknoglobals // fixed vocabulary
	"オリエンテーリング",
	"トレーニング",
	"練習会",
	"選手権",
	"大会",
	"合宿",
	"協会",
	"連盟",
	"クラブ",
	"大学",
	"主催",
	"公認",
	"OL",
}

var stopWordsByLength = sortByLengthDesc(StopWords) //nolint:gochecknoglobals // derived from StopWords

func sortByLengthDesc(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

// Core returns the normalized name with whitespace and every stop word removed.
func Core(name string) string {
	return stripStopWords(Collapse(Normalize(name)))
}

func stripStopWords(s string) string {
	for _, w := range stopWordsByLength {
		s = strings.ReplaceAll(s, w, "")
	}
	return s
}

// IsStopWord reports whether tok equals a stop word.
func IsStopWord(tok string) bool {
	for _, w := range StopWords {
		if w == tok {
			return true
		}
	}
	return false
}

// WithinStopWord reports whether tok is a proper substring of a longer stop word.
func WithinStopWord(tok string) bool {
	n := utf8.RuneCountInString(tok)
	for _, w := range StopWords {
		if utf8.RuneCountInString(w) > n && strings.Contains(w, tok) {
			return true
		}
	}
	return false
}
