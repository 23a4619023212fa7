package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type createBookingRequest struct {
	FieldID         string `json:"fieldId" validate:"required"`
	TeamID          string `json:"teamId" validate:"required"`
	OpponentTeamID  string `json:"opponentTeamId"`
	StartAt         string `json:"startAt" validate:"required"`
	EndAt           string `json:"endAt" validate:"required"`
	SpecialRequests string `json:"specialRequests" validate:"max=500"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

type bookingDTO struct {
	ID              string  `json:"id"`
	FieldID         string  `json:"fieldId"`
	TeamID          string  `json:"teamId"`
	OpponentTeamID  string  `json:"opponentTeamId,omitempty"`
	StartAt         string  `json:"startAt"`
	EndAt           string  `json:"endAt"`
	Status          string  `json:"status"`
	TotalPrice      float64 `json:"totalPrice"`
	PaymentStatus   string  `json:"paymentStatus"`
	CreatedBy       string  `json:"createdBy"`
	IsMatchmaking   bool    `json:"isMatchmaking"`
	SpecialRequests string  `json:"specialRequests,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateBooking")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createBookingRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	slot, err := slotFromRequest(req.StartAt, req.EndAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.bookingService.CreateBooking(ctx, actor, usecase.CreateBookingInput{
		FieldID:         req.FieldID,
		TeamID:          req.TeamID,
		OpponentTeamID:  req.OpponentTeamID,
		Slot:            slot,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create booking failed", "field_id", req.FieldID, "team_id", req.TeamID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, bookingToDTO(ctx, item))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBooking")
	defer span.End()

	bookingID := r.PathValue("bookingID")
	item, err := h.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "get booking failed", "booking_id", bookingID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingToDTO(ctx, item))
}

func (h *Handler) ListFieldBookings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFieldBookings")
	defer span.End()

	fieldID := r.PathValue("fieldID")
	bookings, err := h.bookingService.ListFieldBookings(ctx, fieldID)
	if err != nil {
		h.logger.WarnContext(ctx, "list field bookings failed", "field_id", fieldID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingsToDTO(ctx, bookings))
}

func (h *Handler) ListTeamBookings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamBookings")
	defer span.End()

	teamID := r.PathValue("teamID")
	bookings, err := h.bookingService.ListTeamBookings(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team bookings failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingsToDTO(ctx, bookings))
}

func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateBookingStatus")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	bookingID := r.PathValue("bookingID")
	var req updateBookingStatusRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.bookingService.UpdateStatus(ctx, actor, bookingID, booking.Status(req.Status))
	if err != nil {
		h.logger.WarnContext(ctx, "update booking status failed", "booking_id", bookingID, "status", req.Status, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingToDTO(ctx, item))
}

func (h *Handler) MarkBookingPaid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkBookingPaid")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	bookingID := r.PathValue("bookingID")
	item, err := h.bookingService.MarkPaid(ctx, actor, bookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "mark booking paid failed", "booking_id", bookingID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bookingToDTO(ctx, item))
}

func slotFromRequest(startAt, endAt string) (booking.TimeRange, error) {
	start, err := parseTimestamp("startAt", startAt)
	if err != nil {
		return booking.TimeRange{}, err
	}
	end, err := parseTimestamp("endAt", endAt)
	if err != nil {
		return booking.TimeRange{}, err
	}

	slot, err := booking.NewTimeRange(start, end)
	if err != nil {
		return booking.TimeRange{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	return slot, nil
}

func bookingToDTO(ctx context.Context, v booking.Booking) bookingDTO {
	ctx, span := startSpan(ctx, "httpapi.bookingToDTO")
	defer span.End()

	return bookingDTO{
		ID:              v.ID,
		FieldID:         v.FieldID,
		TeamID:          v.TeamID,
		OpponentTeamID:  v.OpponentTeamID,
		StartAt:         formatTimestamp(v.Slot.Start),
		EndAt:           formatTimestamp(v.Slot.End),
		Status:          string(v.Status),
		TotalPrice:      v.TotalPrice,
		PaymentStatus:   string(v.PaymentStatus),
		CreatedBy:       v.CreatedBy,
		IsMatchmaking:   v.IsMatchmaking,
		SpecialRequests: v.SpecialRequests,
		CreatedAt:       formatTimestamp(v.CreatedAt),
		UpdatedAt:       formatTimestamp(v.UpdatedAt),
	}
}

func bookingsToDTO(ctx context.Context, items []booking.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(items))
	for _, item := range items {
		out = append(out, bookingToDTO(ctx, item))
	}
	return out
}
