package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type createFieldRequest struct {
	Name           string                 `json:"name" validate:"required,max=120"`
	Location       string                 `json:"location" validate:"required,max=200"`
	HourlyRate     float64                `json:"hourlyRate" validate:"gte=0"`
	Capacity       int                    `json:"capacity" validate:"gte=0"`
	OperatingHours map[string]dayHoursDTO `json:"operatingHours"`
}

type updateFieldRequest struct {
	Name           *string                `json:"name" validate:"omitempty,max=120"`
	Location       *string                `json:"location" validate:"omitempty,max=200"`
	HourlyRate     *float64               `json:"hourlyRate" validate:"omitempty,gte=0"`
	Capacity       *int                   `json:"capacity" validate:"omitempty,gte=0"`
	Status         *string                `json:"status" validate:"omitempty,oneof=available unavailable maintenance"`
	OperatingHours map[string]dayHoursDTO `json:"operatingHours"`
}

type dayHoursDTO struct {
	OpenMinutes  int `json:"openMinutes"`
	CloseMinutes int `json:"closeMinutes"`
}

type fieldDTO struct {
	ID             string                 `json:"id"`
	OwnerID        string                 `json:"ownerId"`
	Name           string                 `json:"name"`
	Location       string                 `json:"location"`
	HourlyRate     float64                `json:"hourlyRate"`
	Capacity       int                    `json:"capacity"`
	Status         string                 `json:"status"`
	OperatingHours map[string]dayHoursDTO `json:"operatingHours"`
	CreatedAt      string                 `json:"createdAt"`
	UpdatedAt      string                 `json:"updatedAt"`
}

func (h *Handler) CreateField(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateField")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createFieldRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	hours, err := hoursFromDTO(req.OperatingHours)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.fieldService.CreateField(ctx, actor, usecase.CreateFieldInput{
		Name:       req.Name,
		Location:   req.Location,
		HourlyRate: req.HourlyRate,
		Capacity:   req.Capacity,
		Hours:      hours,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create field failed", "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fieldToDTO(ctx, item))
}

func (h *Handler) GetField(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetField")
	defer span.End()

	fieldID := r.PathValue("fieldID")
	item, err := h.fieldService.GetField(ctx, fieldID)
	if err != nil {
		h.logger.WarnContext(ctx, "get field failed", "field_id", fieldID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fieldToDTO(ctx, item))
}

func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFields")
	defer span.End()

	fields, err := h.fieldService.ListFields(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list fields failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fieldDTO, 0, len(fields))
	for _, f := range fields {
		items = append(items, fieldToDTO(ctx, f))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateField")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fieldID := r.PathValue("fieldID")
	var req updateFieldRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	hours, err := hoursFromDTO(req.OperatingHours)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.UpdateFieldInput{
		Name:       req.Name,
		Location:   req.Location,
		HourlyRate: req.HourlyRate,
		Capacity:   req.Capacity,
		Hours:      hours,
	}
	if req.Status != nil {
		status := field.Status(*req.Status)
		input.Status = &status
	}

	item, err := h.fieldService.UpdateField(ctx, actor, fieldID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update field failed", "field_id", fieldID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fieldToDTO(ctx, item))
}

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func hoursFromDTO(raw map[string]dayHoursDTO) (field.OperatingHours, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	hours := make(field.OperatingHours, len(raw))
	for name, window := range raw {
		day, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", usecase.ErrInvalidInput, name)
		}
		hours[day] = field.DayHours{Open: window.OpenMinutes, Close: window.CloseMinutes}
	}

	return hours, nil
}

func fieldToDTO(ctx context.Context, v field.Field) fieldDTO {
	ctx, span := startSpan(ctx, "httpapi.fieldToDTO")
	defer span.End()

	hours := make(map[string]dayHoursDTO, len(v.Hours))
	for day, window := range v.Hours {
		hours[strings.ToLower(day.String())] = dayHoursDTO{
			OpenMinutes:  window.Open,
			CloseMinutes: window.Close,
		}
	}

	return fieldDTO{
		ID:             v.ID,
		OwnerID:        v.OwnerID,
		Name:           v.Name,
		Location:       v.Location,
		HourlyRate:     v.HourlyRate,
		Capacity:       v.Capacity,
		Status:         string(v.Status),
		OperatingHours: hours,
		CreatedAt:      formatTimestamp(v.CreatedAt),
		UpdatedAt:      formatTimestamp(v.UpdatedAt),
	}
}
