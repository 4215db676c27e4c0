// Package stats derives per-athlete performance figures from event-score
// histories. All functions are pure; empty or zero-mean inputs yield 0.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/okian/olrank/internal/domain/model"
)

const (
	// cvFloor is the coefficient of variation scored as zero consistency.
	cvFloor = 0.3
	// recentWindow is the number of most recent events compared against the lifetime average.
	recentWindow = 3
	minEvents    = 2
)

var datedName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(.*)$`)

// ParseEntry splits "YYYY-MM-DD name" into an EventScore. Entries without a
// valid leading date keep the whole trimmed text as name and an empty date.
func ParseEntry(e model.EventEntry) model.EventScore {
	raw := strings.TrimSpace(e.EventName)
	if m := datedName.FindStringSubmatch(raw); m != nil {
		if _, err := time.Parse(time.DateOnly, m[1]); err == nil {
			return model.EventScore{Date: m[1], EventName: strings.TrimSpace(m[2]), Points: e.Points}
		}
	}
	return model.EventScore{EventName: raw, Points: e.Points}
}

// DedupeEvents parses entries, keeps the first occurrence of every
// (date, name) pair and orders the result by ascending date. Undated
// entries sort first and keep their relative order.
func DedupeEvents(entries []model.EventEntry) []model.EventScore {
	type key struct{ date, name string }
	seen := make(map[key]struct{}, len(entries))
	out := make([]model.EventScore, 0, len(entries))
	for _, e := range entries {
		ev := ParseEntry(e)
		k := key{ev.Date, ev.EventName}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Dated returns the entries that carry a date.
func Dated(events []model.EventScore) []model.EventScore {
	out := make([]model.EventScore, 0, len(events))
	for _, e := range events {
		if e.Dated() {
			out = append(out, e)
		}
	}
	return out
}

// Consistency scores the spread of points over dated events in [0, 100];
// a coefficient of variation of 0.3 or more scores 0.
func Consistency(events []model.EventScore) int {
	dated := Dated(events)
	if len(dated) < minEvents {
		return 0
	}
	mean := average(dated)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, e := range dated {
		d := e.Points - mean
		variance += d * d
	}
	variance /= float64(len(dated))
	cv := math.Sqrt(variance) / mean
	return Round(clamp((1-cv/cvFloor)*100, 0, 100))
}

// RecentForm returns the signed percentage by which the average of the three
// most recent dated events differs from the lifetime average.
func RecentForm(events []model.EventScore) int {
	dated := Dated(events)
	if len(dated) < minEvents {
		return 0
	}
	allAvg := average(dated)
	if allAvg == 0 {
		return 0
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date > dated[j].Date })
	recent := dated[:min(recentWindow, len(dated))]
	return Round((average(recent) - allAvg) / allAvg * 100)
}

// Round rounds half up, matching the rounding the published indexes use.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func average(events []model.EventScore) float64 {
	if len(events) == 0 {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += e.Points
	}
	return sum / float64(len(events))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
