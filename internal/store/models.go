package store

import "time"

// WorkExperience is one entry of a graduate's work history. A zero EndDate
// means the position is ongoing.
type WorkExperience struct {
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date,omitempty"`
}

// Assessment carries the per-graduate assessment state the orchestrator
// writes back. QuestionSetVersion only moves forward, and only when a
// re-match finds the graduate's best score below threshold.
type Assessment struct {
	Attempts           int
	NeedsRetake        bool
	LastScore          float64
	QuestionSetVersion int
}

// Graduate is the stored graduate profile slice relevant to matching.
type Graduate struct {
	ID          string
	Skills      []string
	Education   string
	Experience  string
	WorkHistory []WorkExperience
	Embedding   []float64
	Assessment  Assessment
	UpdatedAt   time.Time
}

// Job is the stored job posting slice relevant to matching.
type Job struct {
	ID           string
	Title        string
	Skills       []string
	Education    string
	Requirements string
	Active       bool
	Embedding    []float64
	UpdatedAt    time.Time
}

// Match statuses. A human decision (accepted/rejected) is never reset by a
// re-match; only first-time inserts create pending records.
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusRejected = "rejected"
)

// Match is a scored graduate/job association. Score is on the 0-100 scale.
type Match struct {
	GraduateID string
	JobID      string
	Score      float64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
