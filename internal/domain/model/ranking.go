// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// RankingType identifies one of the four independently scraped ranking families.
type RankingType int

// Ranking families published by the event-source.
const (
	RankingUnknown RankingType = iota
	EliteForest
	EliteSprint
	AgeForest
	AgeSprint
)

var rankingTypeNames = map[RankingType]string{ //nolint:gochecknoglobals // enum table
	EliteForest: "elite_forest",
	EliteSprint: "elite_sprint",
	AgeForest:   "age_forest",
	AgeSprint:   "age_sprint",
}

// RankingTypes lists every known ranking type in a stable order.
func RankingTypes() []RankingType {
	return []RankingType{EliteForest, EliteSprint, AgeForest, AgeSprint}
}

// ParseRankingType maps the wire name (e.g. "age_forest") to its enum value.
func ParseRankingType(s string) (RankingType, error) {
	for t, name := range rankingTypeNames {
		if name == s {
			return t, nil
		}
	}
	return RankingUnknown, fmt.Errorf("%w: ranking type %q", ErrUnknownCategory, s)
}

func (t RankingType) String() string {
	if name, ok := rankingTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Discipline returns the forest/sprint family of the ranking type.
func (t RankingType) Discipline() Discipline {
	switch t {
	case EliteForest, AgeForest:
		return Forest
	case EliteSprint, AgeSprint:
		return Sprint
	default:
		return DisciplineUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t RankingType) MarshalText() ([]byte, error) {
	if _, ok := rankingTypeNames[t]; !ok {
		return nil, fmt.Errorf("%w: ranking type %d", ErrUnknownCategory, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *RankingType) UnmarshalText(b []byte) error {
	parsed, err := ParseRankingType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Discipline is the forest/sprint axis of specialization.
type Discipline int

// Disciplines.
const (
	DisciplineUnknown Discipline = iota
	Forest
	Sprint
)

func (d Discipline) String() string {
	switch d {
	case Forest:
		return "forest"
	case Sprint:
		return "sprint"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Discipline) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Discipline) UnmarshalText(b []byte) error {
	switch string(b) {
	case "forest":
		*d = Forest
	case "sprint":
		*d = Sprint
	case "", "unknown":
		*d = DisciplineUnknown
	default:
		return fmt.Errorf("%w: discipline %q", ErrUnknownCategory, string(b))
	}
	return nil
}

// CategoryRef names one (ranking type, class) standings table.
type CategoryRef struct {
	Type      RankingType
	ClassName string
}

// FileName returns the {type}_{className}.json file the category is stored in.
func (c CategoryRef) FileName() string {
	return c.Type.String() + "_" + c.ClassName + ".json"
}

func (c CategoryRef) String() string {
	return c.Type.String() + "/" + c.ClassName
}

// ParseCategoryFileName reverses FileName. The ranking type prefix itself
// contains an underscore, so known prefixes are matched instead of splitting.
func ParseCategoryFileName(name string) (CategoryRef, error) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return CategoryRef{}, fmt.Errorf("%w: %s is not a json file", ErrUnknownCategory, name)
	}
	for _, t := range RankingTypes() {
		class, found := strings.CutPrefix(base, t.String()+"_")
		if found && class != "" {
			return CategoryRef{Type: t, ClassName: class}, nil
		}
	}
	return CategoryRef{}, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
}

// EventEntry is one (event-name-with-embedded-date, points) pair of a ranking row.
type EventEntry struct {
	EventName string  `json:"event_name"`
	Points    float64 `json:"points"`
}

// RawRankingRow is one athlete's standing in one category as scraped.
type RawRankingRow struct {
	Rank        int          `json:"rank"`
	Name        string       `json:"name"`
	Club        string       `json:"club"`
	TotalPoints float64      `json:"totalPoints"`
	IsActive    bool         `json:"isActive"`
	Events      []EventEntry `json:"events"`
}

// Category is a full standings table. Invalid counts rows that could not
// be decoded and were left out of Rows.
type Category struct {
	CategoryRef
	Rows    []RawRankingRow
	Invalid int
}

// EventScore is a parsed event entry. Date is YYYY-MM-DD or "" when the
// entry carried no recognizable leading date.
type EventScore struct {
	Date      string  `json:"date"`
	EventName string  `json:"eventName"`
	Points    float64 `json:"points"`
}

// Dated reports whether the score can take part in date-ordered computations.
func (e EventScore) Dated() bool { return e.Date != "" }
