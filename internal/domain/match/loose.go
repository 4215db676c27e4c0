package match

import (
	"regexp"
	"strings"

	"github.com/okian/olrank/internal/domain/text"
)

var (
	looseYear    = regexp.MustCompile(`(19|20)[0-9]{2}(年度|年)?`)
	looseOrdinal = regexp.MustCompile(`第?[0-9一二三四五六七八九十百]+回`)
	looseEra     = regexp.MustCompile(`(令和|平成|昭和)(元|[0-9]{1,2})?(年度|年)?`)
	looseParen   = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)
	looseBracket = regexp.MustCompile(`【[^】]*】|\[[^\]]*\]`)
)

var looseWords = []string{"オリエンテーリング", "大会", "競技会", "OL"} //nolint:gochecknoglobals // fixed vocabulary

const loosePunctuation = " \t　・･、。,.-－_/／:：~〜～!！?？&＆'\"「」『』()（）[]【】"

// StripNoise reduces a name to the compact lowercase form Loose compares.
func StripNoise(s string) string {
	s = text.FoldWidth(s)
	s = looseYear.ReplaceAllString(s, "")
	s = looseOrdinal.ReplaceAllString(s, "")
	s = looseEra.ReplaceAllString(s, "")
	s = looseParen.ReplaceAllString(s, "")
	s = looseBracket.ReplaceAllString(s, "")
	for _, w := range looseWords {
		s = strings.ReplaceAll(s, w, "")
	}
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(loosePunctuation, r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// Loose thresholds.
const (
	looseMinContains = 3
	looseMinTrigram  = 4
	looseMinRatio    = 0.6
	looseMinCommon   = 3
)

// Loose reports whether two event names from different sources plausibly
// name the same event.
func Loose(a, b string) bool {
	x, y := StripNoise(a), StripNoise(b)
	if x == "" || y == "" {
		return false
	}
	if x == y {
		return true
	}
	short, long := order(x, y)
	if runeLen(short) >= looseMinContains && strings.Contains(long, short) {
		return true
	}
	if runeLen(x) < looseMinTrigram || runeLen(y) < looseMinTrigram {
		return false
	}
	common, ratio := overlapRatio(x, y)
	return ratio >= looseMinRatio && common >= looseMinCommon
}
