package model

// ClubMember is one roster row of a club.
type ClubMember struct {
	Name          string      `json:"name"`
	BestRank      int         `json:"bestRank"`
	BestPoints    float64     `json:"bestPoints"`
	Type          RankingType `json:"type"`
	ClassName     string      `json:"className"`
	AthleteType   AthleteType `json:"athleteType"`
	IsActive      bool        `json:"isActive"`
	CategoryCount int         `json:"categoryCount"`
	RecentForm    int         `json:"recentForm"`
	Consistency   int         `json:"consistency"`
	EventCount    int         `json:"eventCount"`
}

// ClubProfile aggregates the members of one resolved club.
type ClubProfile struct {
	Name        string       `json:"name"`
	MemberCount int          `json:"memberCount"`
	ActiveCount int          `json:"activeCount"`
	AvgPoints   float64      `json:"avgPoints"`
	ForestCount int          `json:"forestCount"`
	SprintCount int          `json:"sprintCount"`
	Members     []ClubMember `json:"members"`
}
