package httpapi

import (
	"context"
	"net/http"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type recordResultRequest struct {
	HomeScore   int              `json:"homeScore" validate:"gte=0"`
	AwayScore   int              `json:"awayScore" validate:"gte=0"`
	Status      string           `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled postponed"`
	MVPPlayerID string           `json:"mvpPlayerId"`
	Events      []matchEventBody `json:"events" validate:"dive"`
}

type matchEventBody struct {
	Type     string `json:"type" validate:"required,max=40"`
	PlayerID string `json:"playerId"`
	Detail   string `json:"detail" validate:"max=200"`
	At       string `json:"at" validate:"required"`
}

type rateOpponentRequest struct {
	RaterTeamID string `json:"raterTeamId" validate:"required"`
	Score       int    `json:"score" validate:"required,gte=1,lte=5"`
	Category    string `json:"category" validate:"required,oneof=sportsmanship skill_level punctuality overall"`
	Recommended bool   `json:"recommended"`
}

type matchResultDTO struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	HomeTeamID  string          `json:"homeTeamId"`
	AwayTeamID  string          `json:"awayTeamId"`
	HomeScore   int             `json:"homeScore"`
	AwayScore   int             `json:"awayScore"`
	Status      string          `json:"status"`
	MVPPlayerID string          `json:"mvpPlayerId,omitempty"`
	RecordedBy  string          `json:"recordedBy"`
	RecordedAt  string          `json:"recordedAt"`
	Events      []matchEventDTO `json:"events,omitempty"`
}

type matchEventDTO struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
	Detail   string `json:"detail,omitempty"`
	At       string `json:"at"`
}

type ratingDTO struct {
	ID          string `json:"id"`
	RaterTeamID string `json:"raterTeamId"`
	RatedTeamID string `json:"ratedTeamId"`
	BookingID   string `json:"bookingId"`
	Score       int    `json:"score"`
	Category    string `json:"category"`
	Recommended bool   `json:"recommended"`
	CreatedAt   string `json:"createdAt"`
}

type ratingSummaryDTO struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

func (h *Handler) RecordMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatchResult")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	bookingID := r.PathValue("bookingID")
	var req recordResultRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	events := make([]matchresult.Event, 0, len(req.Events))
	for _, e := range req.Events {
		at, err := parseTimestamp("events.at", e.At)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		events = append(events, matchresult.Event{
			Type:     e.Type,
			PlayerID: e.PlayerID,
			Detail:   e.Detail,
			At:       at,
		})
	}

	item, err := h.resultService.RecordResult(ctx, actor, usecase.RecordResultInput{
		BookingID:   bookingID,
		HomeScore:   req.HomeScore,
		AwayScore:   req.AwayScore,
		Status:      matchresult.Status(req.Status),
		MVPPlayerID: req.MVPPlayerID,
		Events:      events,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record match result failed", "booking_id", bookingID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultToDTO(ctx, item))
}

func (h *Handler) GetMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchResult")
	defer span.End()

	bookingID := r.PathValue("bookingID")
	item, err := h.resultService.GetResult(ctx, bookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match result failed", "booking_id", bookingID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultToDTO(ctx, item))
}

func (h *Handler) RateOpponent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RateOpponent")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	bookingID := r.PathValue("bookingID")
	var req rateOpponentRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.resultService.RateOpponent(ctx, actor, usecase.RateOpponentInput{
		BookingID:   bookingID,
		RaterTeamID: req.RaterTeamID,
		Score:       req.Score,
		Category:    matchresult.RatingCategory(req.Category),
		Recommended: req.Recommended,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "rate opponent failed", "booking_id", bookingID, "rater_team_id", req.RaterTeamID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, ratingToDTO(ctx, item))
}

func (h *Handler) GetTeamRatingSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamRatingSummary")
	defer span.End()

	teamID := r.PathValue("teamID")
	summary, err := h.resultService.TeamRatingSummary(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "team rating summary failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]ratingSummaryDTO, 0, len(summary))
	for _, bucket := range summary {
		items = append(items, ratingSummaryDTO{
			Category: string(bucket.Category),
			Average:  bucket.Average,
			Count:    bucket.Count,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func resultToDTO(ctx context.Context, v matchresult.Result) matchResultDTO {
	ctx, span := startSpan(ctx, "httpapi.resultToDTO")
	defer span.End()

	events := make([]matchEventDTO, 0, len(v.Events))
	for _, e := range v.Events {
		events = append(events, matchEventDTO{
			Type:     e.Type,
			PlayerID: e.PlayerID,
			Detail:   e.Detail,
			At:       formatTimestamp(e.At),
		})
	}

	return matchResultDTO{
		ID:          v.ID,
		BookingID:   v.BookingID,
		HomeTeamID:  v.HomeTeamID,
		AwayTeamID:  v.AwayTeamID,
		HomeScore:   v.HomeScore,
		AwayScore:   v.AwayScore,
		Status:      string(v.Status),
		MVPPlayerID: v.MVPPlayerID,
		RecordedBy:  v.RecordedBy,
		RecordedAt:  formatTimestamp(v.RecordedAt),
		Events:      events,
	}
}

func ratingToDTO(ctx context.Context, v matchresult.Rating) ratingDTO {
	ctx, span := startSpan(ctx, "httpapi.ratingToDTO")
	defer span.End()

	return ratingDTO{
		ID:          v.ID,
		RaterTeamID: v.RaterTeamID,
		RatedTeamID: v.RatedTeamID,
		BookingID:   v.BookingID,
		Score:       v.Score,
		Category:    string(v.Category),
		Recommended: v.Recommended,
		CreatedAt:   formatTimestamp(v.CreatedAt),
	}
}
