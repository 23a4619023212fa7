package field

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusMaintenance Status = "maintenance"
)

var allStatuses = map[Status]struct{}{
	StatusAvailable:   {},
	StatusUnavailable: {},
	StatusMaintenance: {},
}

// DayHours is one weekday's bookable window in minutes since midnight,
// half-open: a field open 08:00-22:00 has Open=480, Close=1320. A full
// day is Open=0, Close=1440.
type DayHours struct {
	Open  int
	Close int
}

func (h DayHours) Valid() bool {
	return h.Open >= 0 && h.Close <= 24*60 && h.Open < h.Close
}

// OperatingHours maps weekdays to bookable windows. A weekday without an
// entry is closed.
type OperatingHours map[time.Weekday]DayHours

// Covers reports whether [start, end) fits inside the window of start's
// weekday. Intervals crossing midnight never fit: the day window is at
// most [0, 1440) relative to the start day.
func (oh OperatingHours) Covers(start, end time.Time) bool {
	hours, ok := oh[start.Weekday()]
	if !ok || !hours.Valid() {
		return false
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := startMin + int(end.Sub(start)/time.Minute)

	return startMin >= hours.Open && endMin <= hours.Close
}

// Field is a physical bookable venue owned by one user.
type Field struct {
	ID         string
	OwnerID    string
	Name       string
	Location   string
	HourlyRate float64
	Capacity   int
	Status     Status
	Hours      OperatingHours
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (f Field) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("field id is required")
	}
	if f.OwnerID == "" {
		return fmt.Errorf("field owner id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	if f.HourlyRate < 0 {
		return fmt.Errorf("field hourly rate cannot be negative")
	}
	if f.Capacity < 0 {
		return fmt.Errorf("field capacity cannot be negative")
	}
	if _, ok := allStatuses[f.Status]; !ok {
		return fmt.Errorf("invalid field status: %s", f.Status)
	}
	for day, hours := range f.Hours {
		if !hours.Valid() {
			return fmt.Errorf("invalid operating hours for %s: open=%d close=%d", day, hours.Open, hours.Close)
		}
	}

	return nil
}

// FullWeek is the operating-hours shorthand for an always-open field.
func FullWeek() OperatingHours {
	oh := make(OperatingHours, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		oh[day] = DayHours{Open: 0, Close: 24 * 60}
	}
	return oh
}
