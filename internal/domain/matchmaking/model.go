package matchmaking

import (
	"fmt"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
)

type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestMatched   RequestStatus = "matched"
	RequestExpired   RequestStatus = "expired"
	RequestCancelled RequestStatus = "cancelled"
)

var requestTransitions = map[RequestStatus]map[RequestStatus]struct{}{
	RequestOpen: {
		RequestMatched:   {},
		RequestExpired:   {},
		RequestCancelled: {},
	},
	RequestMatched:   {},
	RequestExpired:   {},
	RequestCancelled: {},
}

func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

func (s RequestStatus) CanTransition(next RequestStatus) bool {
	allowed, ok := requestTransitions[s]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

// Request is a captain's open call for an opponent team. The preferred
// field and slot are what an accepted challenge books.
type Request struct {
	ID             string
	CaptainID      string
	TeamID         string
	TeamName       string
	SkillLevel     string
	Location       string
	PlayersNeeded  int
	PreferredField string
	PreferredSlot  booking.TimeRange
	Status         RequestStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("match request id is required")
	}
	if r.CaptainID == "" {
		return fmt.Errorf("match request captain id is required")
	}
	if r.TeamID == "" {
		return fmt.Errorf("match request team id is required")
	}
	if r.PlayersNeeded < 0 {
		return fmt.Errorf("match request players needed cannot be negative")
	}
	if r.PreferredField == "" {
		return fmt.Errorf("match request preferred field is required")
	}
	if err := r.PreferredSlot.Validate(); err != nil {
		return fmt.Errorf("match request preferred slot: %w", err)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid match request status: %s", r.Status)
	}

	return nil
}

// EffectiveStatus computes expiry lazily: an open request older than ttl
// reads as expired without requiring a stored mutation.
func (r Request) EffectiveStatus(now time.Time, ttl time.Duration) RequestStatus {
	if r.Status == RequestOpen && ttl > 0 && !now.Before(r.CreatedAt.Add(ttl)) {
		return RequestExpired
	}
	return r.Status
}

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeAccepted  ChallengeStatus = "accepted"
	ChallengeDeclined  ChallengeStatus = "declined"
	ChallengeWithdrawn ChallengeStatus = "withdrawn"
)

var challengeTransitions = map[ChallengeStatus]map[ChallengeStatus]struct{}{
	ChallengePending: {
		ChallengeAccepted:  {},
		ChallengeDeclined:  {},
		ChallengeWithdrawn: {},
	},
	ChallengeAccepted:  {},
	ChallengeDeclined:  {},
	ChallengeWithdrawn: {},
}

func (s ChallengeStatus) Valid() bool {
	_, ok := challengeTransitions[s]
	return ok
}

func (s ChallengeStatus) CanTransition(next ChallengeStatus) bool {
	allowed, ok := challengeTransitions[s]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

// Challenge is another captain's response to an open request.
type Challenge struct {
	ID               string
	RequestID        string
	ChallengerID     string
	ChallengerTeamID string
	Message          string
	Status           ChallengeStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("challenge id is required")
	}
	if c.RequestID == "" {
		return fmt.Errorf("challenge request id is required")
	}
	if c.ChallengerID == "" {
		return fmt.Errorf("challenge challenger id is required")
	}
	if c.ChallengerTeamID == "" {
		return fmt.Errorf("challenge challenger team id is required")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid challenge status: %s", c.Status)
	}

	return nil
}
