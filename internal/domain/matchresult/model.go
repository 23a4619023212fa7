package matchresult

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusPostponed  Status = "postponed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusPostponed:
		return true
	default:
		return false
	}
}

// Terminal results can no longer be re-recorded.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Event is one timestamped entry in a result's ordered match log.
type Event struct {
	Type     string
	PlayerID string
	Detail   string
	At       time.Time
}

// Result is the recorded outcome of one booking; at most one exists per
// booking.
type Result struct {
	ID          string
	BookingID   string
	HomeTeamID  string
	AwayTeamID  string
	HomeScore   int
	AwayScore   int
	Status      Status
	MVPPlayerID string
	RecordedBy  string
	RecordedAt  time.Time
	Events      []Event
}

func (r Result) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("match result id is required")
	}
	if r.BookingID == "" {
		return fmt.Errorf("match result booking id is required")
	}
	if r.HomeTeamID == "" || r.AwayTeamID == "" {
		return fmt.Errorf("match result team ids are required")
	}
	if r.HomeScore < 0 || r.AwayScore < 0 {
		return fmt.Errorf("match result scores cannot be negative")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid match result status: %s", r.Status)
	}
	if r.RecordedBy == "" {
		return fmt.Errorf("match result recorder id is required")
	}

	return nil
}

type RatingCategory string

const (
	CategorySportsmanship RatingCategory = "sportsmanship"
	CategorySkillLevel    RatingCategory = "skill_level"
	CategoryPunctuality   RatingCategory = "punctuality"
	CategoryOverall       RatingCategory = "overall"
)

func (c RatingCategory) Valid() bool {
	switch c {
	case CategorySportsmanship, CategorySkillLevel, CategoryPunctuality, CategoryOverall:
		return true
	default:
		return false
	}
}

const (
	RatingScoreMin = 1
	RatingScoreMax = 5
)

// Rating is one team's post-match assessment of the other, unique per
// (rater, rated, booking, category).
type Rating struct {
	ID          string
	RaterTeamID string
	RatedTeamID string
	BookingID   string
	Score       int
	Category    RatingCategory
	Recommended bool
	CreatedAt   time.Time
}

func (r Rating) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rating id is required")
	}
	if r.RaterTeamID == "" || r.RatedTeamID == "" {
		return fmt.Errorf("rating team ids are required")
	}
	if r.RaterTeamID == r.RatedTeamID {
		return fmt.Errorf("rating teams must differ")
	}
	if r.BookingID == "" {
		return fmt.Errorf("rating booking id is required")
	}
	if r.Score < RatingScoreMin || r.Score > RatingScoreMax {
		return fmt.Errorf("rating score must be between %d and %d", RatingScoreMin, RatingScoreMax)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("invalid rating category: %s", r.Category)
	}

	return nil
}

// CategoryAverage is one aggregated rating bucket for a team.
type CategoryAverage struct {
	Category RatingCategory
	Average  float64
	Count    int
}
