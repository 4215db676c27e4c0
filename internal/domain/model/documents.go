package model

import "time"

// SchemaVersion tags every artifact written by the pipeline.
const SchemaVersion = 1

// AthleteIndexDoc is the athlete-index.json artifact.
type AthleteIndexDoc struct {
	SchemaVersion int                        `json:"schemaVersion"`
	Athletes      map[string]*AthleteSummary `json:"athletes"`
	GeneratedAt   time.Time                  `json:"generatedAt"`
}

// ClubStatsDoc is the club-stats.json artifact.
type ClubStatsDoc struct {
	SchemaVersion int                     `json:"schemaVersion"`
	Clubs         map[string]*ClubProfile `json:"clubs"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}

// TimingDoc is the lapcenter-runners.json artifact.
type TimingDoc struct {
	SchemaVersion int                       `json:"schemaVersion"`
	Athletes      map[string][]TimingRecord `json:"athletes"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}
