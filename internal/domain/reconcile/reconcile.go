// Package reconcile assigns timing-source records to the forest or sprint
// discipline using the athlete's event-source history.
package reconcile

import (
	"github.com/okian/olrank/internal/domain/match"
	"github.com/okian/olrank/internal/domain/model"
)

// Source is the event history of one category appearance.
type Source struct {
	Discipline model.Discipline
	Events     []model.EventScore
}

type candidate struct {
	discipline model.Discipline
	name       string
}

// Reconcile splits records into forest and sprint. A record whose date has
// candidates of one discipline takes it directly; with mixed candidates the
// first loosely matching event name decides. Records left undetermined are
// discarded and baseline sentinel rows are filtered.
func Reconcile(records []model.TimingRecord, sources []Source) model.TimingSplit {
	byDate := make(map[string][]candidate)
	for _, src := range sources {
		if src.Discipline == model.DisciplineUnknown {
			continue
		}
		for _, ev := range src.Events {
			if !ev.Dated() {
				continue
			}
			byDate[ev.Date] = append(byDate[ev.Date], candidate{discipline: src.Discipline, name: ev.EventName})
		}
	}

	var out model.TimingSplit
	for _, rec := range records {
		if rec.Baseline() {
			out.Filtered++
			continue
		}
		d := resolve(rec, byDate[rec.Date])
		rec.Type = d
		switch d {
		case model.Forest:
			out.Forest = append(out.Forest, rec)
		case model.Sprint:
			out.Sprint = append(out.Sprint, rec)
		case model.DisciplineUnknown:
			out.Discarded++
		}
	}
	return out
}

func resolve(rec model.TimingRecord, cands []candidate) model.Discipline {
	if len(cands) == 0 {
		return model.DisciplineUnknown
	}
	if single, ok := uniform(cands); ok {
		return single
	}
	for _, c := range cands {
		if match.Loose(rec.EventName, c.name) {
			return c.discipline
		}
	}
	return model.DisciplineUnknown
}

func uniform(cands []candidate) (model.Discipline, bool) {
	first := cands[0].discipline
	for _, c := range cands[1:] {
		if c.discipline != first {
			return model.DisciplineUnknown, false
		}
	}
	return first, true
}
