package match

// trigrams returns the set of rune 3-grams of s.
func trigrams(s string) map[string]struct{} {
	rs := []rune(s)
	out := make(map[string]struct{}, len(rs))
	for i := 0; i+3 <= len(rs); i++ {
		out[string(rs[i:i+3])] = struct{}{}
	}
	return out
}

func commonTrigrams(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for g := range a {
		if _, ok := b[g]; ok {
			n++
		}
	}
	return n
}

// trigramSimilarity returns the shared trigram count and the smaller of the
// two containment ratios (shared over each side's set size).
func trigramSimilarity(short, long string) (int, float64) {
	s, l := trigrams(short), trigrams(long)
	if len(s) == 0 || len(l) == 0 {
		return 0, 0
	}
	common := commonTrigrams(s, l)
	return common, min(float64(common)/float64(len(s)), float64(common)/float64(len(l)))
}

// overlapRatio returns the shared trigram count and the share relative to
// the smaller set.
func overlapRatio(a, b string) (int, float64) {
	x, y := trigrams(a), trigrams(b)
	smaller := min(len(x), len(y))
	if smaller == 0 {
		return 0, 0
	}
	common := commonTrigrams(x, y)
	return common, float64(common) / float64(smaller)
}
