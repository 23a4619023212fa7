package httpapi

import (
	"context"
	"net/http"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type createMatchRequestRequest struct {
	TeamID           string `json:"teamId" validate:"required"`
	SkillLevel       string `json:"skillLevel" validate:"max=40"`
	Location         string `json:"location" validate:"max=200"`
	PlayersNeeded    int    `json:"playersNeeded" validate:"gte=0"`
	PreferredFieldID string `json:"preferredFieldId" validate:"required"`
	PreferredStartAt string `json:"preferredStartAt" validate:"required"`
	PreferredEndAt   string `json:"preferredEndAt" validate:"required"`
}

type createChallengeRequest struct {
	TeamID  string `json:"teamId" validate:"required"`
	Message string `json:"message" validate:"max=500"`
}

type matchRequestDTO struct {
	ID               string `json:"id"`
	CaptainID        string `json:"captainId"`
	TeamID           string `json:"teamId"`
	TeamName         string `json:"teamName,omitempty"`
	SkillLevel       string `json:"skillLevel,omitempty"`
	Location         string `json:"location,omitempty"`
	PlayersNeeded    int    `json:"playersNeeded"`
	PreferredFieldID string `json:"preferredFieldId"`
	PreferredStartAt string `json:"preferredStartAt"`
	PreferredEndAt   string `json:"preferredEndAt"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type challengeDTO struct {
	ID               string `json:"id"`
	RequestID        string `json:"requestId"`
	ChallengerID     string `json:"challengerId"`
	ChallengerTeamID string `json:"challengerTeamId"`
	Message          string `json:"message,omitempty"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type acceptChallengeDTO struct {
	Request   matchRequestDTO `json:"request"`
	Challenge challengeDTO    `json:"challenge"`
	Booking   bookingDTO      `json:"booking"`
}

func (h *Handler) CreateMatchRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatchRequest")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createMatchRequestRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	slot, err := slotFromRequest(req.PreferredStartAt, req.PreferredEndAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchmakingService.CreateRequest(ctx, actor, usecase.CreateRequestInput{
		TeamID:         req.TeamID,
		SkillLevel:     req.SkillLevel,
		Location:       req.Location,
		PlayersNeeded:  req.PlayersNeeded,
		PreferredField: req.PreferredFieldID,
		PreferredSlot:  slot,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match request failed", "team_id", req.TeamID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, requestToDTO(ctx, item))
}

func (h *Handler) GetMatchRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchRequest")
	defer span.End()

	requestID := r.PathValue("requestID")
	item, err := h.matchmakingService.GetRequest(ctx, requestID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match request failed", "request_id", requestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, requestToDTO(ctx, item))
}

func (h *Handler) ListOpenMatchRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpenMatchRequests")
	defer span.End()

	requests, err := h.matchmakingService.ListOpenRequests(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list open match requests failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchRequestDTO, 0, len(requests))
	for _, item := range requests {
		items = append(items, requestToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CancelMatchRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelMatchRequest")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	requestID := r.PathValue("requestID")
	item, err := h.matchmakingService.CancelRequest(ctx, actor, requestID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel match request failed", "request_id", requestID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, requestToDTO(ctx, item))
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateChallenge")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	requestID := r.PathValue("requestID")
	var req createChallengeRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchmakingService.CreateChallenge(ctx, actor, usecase.CreateChallengeInput{
		RequestID: requestID,
		TeamID:    req.TeamID,
		Message:   req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create challenge failed", "request_id", requestID, "team_id", req.TeamID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, challengeToDTO(ctx, item))
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChallenges")
	defer span.End()

	requestID := r.PathValue("requestID")
	challenges, err := h.matchmakingService.ListChallenges(ctx, requestID)
	if err != nil {
		h.logger.WarnContext(ctx, "list challenges failed", "request_id", requestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]challengeDTO, 0, len(challenges))
	for _, item := range challenges {
		items = append(items, challengeToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AcceptChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptChallenge")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	challengeID := r.PathValue("challengeID")
	accepted, err := h.matchmakingService.AcceptChallenge(ctx, actor, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept challenge failed", "challenge_id", challengeID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, acceptChallengeDTO{
		Request:   requestToDTO(ctx, accepted.Request),
		Challenge: challengeToDTO(ctx, accepted.Challenge),
		Booking:   bookingToDTO(ctx, accepted.Booking),
	})
}

func (h *Handler) DeclineChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclineChallenge")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	challengeID := r.PathValue("challengeID")
	item, err := h.matchmakingService.DeclineChallenge(ctx, actor, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "decline challenge failed", "challenge_id", challengeID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengeToDTO(ctx, item))
}

func (h *Handler) WithdrawChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawChallenge")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	challengeID := r.PathValue("challengeID")
	item, err := h.matchmakingService.WithdrawChallenge(ctx, actor, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "withdraw challenge failed", "challenge_id", challengeID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengeToDTO(ctx, item))
}

func requestToDTO(ctx context.Context, v matchmaking.Request) matchRequestDTO {
	ctx, span := startSpan(ctx, "httpapi.requestToDTO")
	defer span.End()

	return matchRequestDTO{
		ID:               v.ID,
		CaptainID:        v.CaptainID,
		TeamID:           v.TeamID,
		TeamName:         v.TeamName,
		SkillLevel:       v.SkillLevel,
		Location:         v.Location,
		PlayersNeeded:    v.PlayersNeeded,
		PreferredFieldID: v.PreferredField,
		PreferredStartAt: formatTimestamp(v.PreferredSlot.Start),
		PreferredEndAt:   formatTimestamp(v.PreferredSlot.End),
		Status:           string(v.Status),
		CreatedAt:        formatTimestamp(v.CreatedAt),
		UpdatedAt:        formatTimestamp(v.UpdatedAt),
	}
}

func challengeToDTO(ctx context.Context, v matchmaking.Challenge) challengeDTO {
	ctx, span := startSpan(ctx, "httpapi.challengeToDTO")
	defer span.End()

	return challengeDTO{
		ID:               v.ID,
		RequestID:        v.RequestID,
		ChallengerID:     v.ChallengerID,
		ChallengerTeamID: v.ChallengerTeamID,
		Message:          v.Message,
		Status:           string(v.Status),
		CreatedAt:        formatTimestamp(v.CreatedAt),
		UpdatedAt:        formatTimestamp(v.UpdatedAt),
	}
}
