package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// transitions is the single place booking status moves are allowed.
// pending and confirmed may both cancel; completed and cancelled are
// terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusConfirmed: {},
		StatusCancelled: {},
	},
	StatusConfirmed: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the status machine permits moving from s
// to next.
func (s Status) CanTransition(next Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Blocks reports whether a booking in this status reserves its slot.
// Cancelled and completed bookings never block a field.
func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// Booking reserves one field for one team over one time range.
// TotalPrice is derived at creation and never recomputed afterwards.
type Booking struct {
	ID              string
	FieldID         string
	TeamID          string
	OpponentTeamID  string
	Slot            TimeRange
	Status          Status
	TotalPrice      float64
	PaymentStatus   PaymentStatus
	CreatedBy       string
	IsMatchmaking   bool
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b Booking) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("booking id is required")
	}
	if b.FieldID == "" {
		return fmt.Errorf("booking field id is required")
	}
	if b.TeamID == "" {
		return fmt.Errorf("booking team id is required")
	}
	if b.CreatedBy == "" {
		return fmt.Errorf("booking creator id is required")
	}
	if err := b.Slot.Validate(); err != nil {
		return fmt.Errorf("booking slot: %w", err)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("invalid booking status: %s", b.Status)
	}
	if !b.PaymentStatus.Valid() {
		return fmt.Errorf("invalid booking payment status: %s", b.PaymentStatus)
	}
	if b.TotalPrice < 0 {
		return fmt.Errorf("booking total price cannot be negative")
	}

	return nil
}
