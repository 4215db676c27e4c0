// Package crosslink assigns timing-source event ids to primary-source events.
package crosslink

import (
	"github.com/okian/olrank/internal/domain/match"
	"github.com/okian/olrank/internal/domain/model"
)

// Matcher decides whether two event names refer to the same event.
type Matcher func(a, b string) (bool, match.Rule)

// Linker links events by exact date and fuzzy name. Within one date the
// first matching candidate in source order wins.
type Linker struct {
	match    Matcher
	observer func(match.Rule)
}

// Option configures a Linker.
type Option func(*Linker)

// WithMatcher replaces the default fuzzy matcher.
func WithMatcher(m Matcher) Option {
	return func(l *Linker) { l.match = m }
}

// WithObserver receives the deciding rule of every comparison.
func WithObserver(fn func(match.Rule)) Option {
	return func(l *Linker) { l.observer = fn }
}

// New returns a Linker using match.Explain unless overridden.
func New(opts ...Option) *Linker {
	l := &Linker{match: match.Explain}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Link pairs one primary event with one secondary event.
type Link struct {
	Index     int
	JOEID     int64
	TimingID  int64
	EventName string
}

// Result summarizes one linking pass.
type Result struct {
	Links     []Link
	Unmatched int
	Undated   int
}

// Link fills LapcenterEventID of unlinked primary events in place. Ids
// already present on primary events count as consumed, so no secondary id is
// ever assigned to two events.
func (l *Linker) Link(primary []model.Event, secondary []model.TimingEvent) Result {
	buckets := make(map[string][]model.TimingEvent)
	for _, ev := range secondary {
		buckets[ev.Date] = append(buckets[ev.Date], ev)
	}
	consumed := make(map[int64]struct{})
	for i := range primary {
		if primary[i].Linked() {
			consumed[*primary[i].LapcenterEventID] = struct{}{}
		}
	}

	var res Result
	for i := range primary {
		ev := &primary[i]
		if ev.Linked() {
			continue
		}
		if ev.Date == "" {
			res.Undated++
			continue
		}
		cand, ok := l.first(ev.Name, buckets[ev.Date], consumed)
		if !ok {
			res.Unmatched++
			continue
		}
		consumed[cand.EventID] = struct{}{}
		ev.Link(cand.EventID)
		res.Links = append(res.Links, Link{Index: i, JOEID: ev.JOEEventID, TimingID: cand.EventID, EventName: ev.Name})
	}
	return res
}

func (l *Linker) first(name string, candidates []model.TimingEvent, consumed map[int64]struct{}) (model.TimingEvent, bool) {
	for _, c := range candidates {
		if _, used := consumed[c.EventID]; used {
			continue
		}
		ok, rule := l.match(name, c.Name)
		if l.observer != nil {
			l.observer(rule)
		}
		if ok {
			return c, true
		}
	}
	return model.TimingEvent{}, false
}
