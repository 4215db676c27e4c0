package model

// Event is one primary-source event as stored in the events file.
// Optional fields are nil when absent and omitted on write.
type Event struct {
	JOEEventID       int64    `json:"joe_event_id"`
	Name             string   `json:"name"`
	Date             string   `json:"date"`
	EndDate          *string  `json:"end_date,omitempty"`
	Prefecture       string   `json:"prefecture"`
	EntryStatus      string   `json:"entry_status"`
	Tags             []string `json:"tags"`
	JOEURL           string   `json:"joe_url"`
	LapcenterEventID *int64   `json:"lapcenter_event_id,omitempty"`
	LapcenterURL     *string  `json:"lapcenter_url,omitempty"`
	RecentlyUpdated  *bool    `json:"recently_updated,omitempty"`
	UpdateLabel      *string  `json:"update_label,omitempty"`
}

// Linked reports whether the event already carries a timing-source id.
func (e *Event) Linked() bool { return e.LapcenterEventID != nil }

// Link assigns the timing-source id.
func (e *Event) Link(id int64) {
	e.LapcenterEventID = &id
}

// TimingEvent is one event listed by the timing-source.
type TimingEvent struct {
	EventID int64  `json:"eventId"`
	Name    string `json:"name"`
	Date    string `json:"date"`
}

// TimingClass is one class of a timing-source event.
type TimingClass struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimingRunner is one row of a timing-source class result list.
// Rank is 0 for runners without a placing.
type TimingRunner struct {
	Name     string  `json:"name"`
	Club     string  `json:"club"`
	Rank     int     `json:"rank"`
	Result   string  `json:"result"`
	Speed    float64 `json:"speed"`
	MissRate float64 `json:"missRate"`
}

// TimingRecord is one athlete's performance at one timing-source event.
type TimingRecord struct {
	Date      string     `json:"date"`
	EventName string     `json:"eventName"`
	ClassName string     `json:"className"`
	Speed     float64    `json:"speed"`
	MissRate  float64    `json:"missRate"`
	Type      Discipline `json:"type"`
}

// Baseline reports the speed 100 / miss rate 0 sentinel emitted for
// classes with a single runner.
func (r TimingRecord) Baseline() bool {
	return r.Speed == 100 && r.MissRate == 0
}
