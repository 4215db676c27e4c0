// Package clubname resolves club and organization aliases to one canonical
// name so the same club is not split across near-duplicate keys.
package clubname

import (
	"regexp"
	"strings"

	"github.com/okian/olrank/internal/domain/text"
)

// aliases maps known abbreviations to canonical institution names.
// Values must themselves resolve to themselves.
var aliases = map[string]string{ //nolint:gochecknoglobals // fixed table
	"京大OLC":  "京都大学",
	"東大OLK":  "東京大学",
	"阪大OLC":  "大阪大学",
	"名大OLC":  "名古屋大学",
	"東北大OLC": "東北大学",
	"筑波大OLC": "筑波大学",
	"北大OLC":  "北海道大学",
	"九大OLC":  "九州大学",
	"早大OC":   "早稲田大学",
	"慶應OLC":  "慶應義塾大学",
	"慶応義塾大学": "慶應義塾大学",
}

// unifications merges specific spellings that the generic rules leave apart.
var unifications = map[string]string{ //nolint:gochecknoglobals // fixed table
	"OLCルーパー": "ルーパー",
	"ES関東C":   "ES関東クラブ",
	"朱雀OK":    "朱雀OLC",
}

var (
	olcMarker    = regexp.MustCompile(`(?i)\bolc\b`)
	graduate     = regexp.MustCompile(`大学院[0-9]*$`)
	cohort       = regexp.MustCompile(`(\s*[0-9]+期)+$`)
	trailingNum  = regexp.MustCompile(`(\s+[0-9]+)+$`)
	olClubSuffix = regexp.MustCompile(`(オリエンテーリングクラブ|OLクラブ|OL倶楽部)$`)
)

// Normalize returns the canonical club name for one raw club string.
// Normalize(Normalize(x)) == Normalize(x).
//
// The loop runs until nothing changes. Table values are fixpoints and every
// other rule either shortens the string or only upcases the OLC marker, so
// it always ends.
func Normalize(raw string) string {
	s := strings.TrimSpace(text.FoldWidth(raw))
	for {
		next := resolveOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func resolveOnce(s string) string {
	s = olcMarker.ReplaceAllString(s, "OLC")
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	s = graduate.ReplaceAllString(s, "大学")
	s = cohort.ReplaceAllString(s, "")
	s = trailingNum.ReplaceAllString(s, "")
	s = olClubSuffix.ReplaceAllString(s, "OLC")
	if unified, ok := unifications[s]; ok {
		s = unified
	}
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return strings.TrimSpace(s)
}

// Split resolves every club of a slash-separated club field. Placeholders
// ("-", empty) are dropped and duplicates collapse; input order is kept.
func Split(field string) []string {
	parts := strings.FieldsFunc(field, func(r rune) bool { return r == '/' || r == '／' })
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "-" || p == "－" {
			continue
		}
		name := Normalize(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
