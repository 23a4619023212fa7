package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
)

type fieldTableModel struct {
	ID             string    `db:"id"`
	OwnerID        string    `db:"owner_id"`
	Name           string    `db:"name"`
	Location       string    `db:"location"`
	HourlyRate     float64   `db:"hourly_rate"`
	Capacity       int       `db:"capacity"`
	Status         string    `db:"status"`
	OperatingHours []byte    `db:"operating_hours"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// dayHoursJSON is the jsonb shape of one weekday window, keyed by the
// numeric weekday (0 = Sunday) in the surrounding object.
type dayHoursJSON struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

func marshalHours(hours field.OperatingHours) ([]byte, error) {
	out := make(map[time.Weekday]dayHoursJSON, len(hours))
	for day, h := range hours {
		out[day] = dayHoursJSON{Open: h.Open, Close: h.Close}
	}
	data, err := sonic.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal operating hours: %w", err)
	}
	return data, nil
}

func unmarshalHours(data []byte) (field.OperatingHours, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[time.Weekday]dayHoursJSON
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal operating hours: %w", err)
	}
	out := make(field.OperatingHours, len(raw))
	for day, h := range raw {
		out[day] = field.DayHours{Open: h.Open, Close: h.Close}
	}
	return out, nil
}

func (m fieldTableModel) toDomain() (field.Field, error) {
	hours, err := unmarshalHours(m.OperatingHours)
	if err != nil {
		return field.Field{}, err
	}

	return field.Field{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		Location:   m.Location,
		HourlyRate: m.HourlyRate,
		Capacity:   m.Capacity,
		Status:     field.Status(m.Status),
		Hours:      hours,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}
