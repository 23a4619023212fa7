package httpapi

import (
	"context"
	"net/http"

	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type createTeamRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	MaxPlayers  int    `json:"maxPlayers" validate:"required,gte=1,lte=50"`
	SkillLevel  string `json:"skillLevel" validate:"max=40"`
	HomeFieldID string `json:"homeFieldId"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=player substitute"`
}

type teamDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CaptainID   string `json:"captainId"`
	MaxPlayers  int    `json:"maxPlayers"`
	SkillLevel  string `json:"skillLevel,omitempty"`
	HomeFieldID string `json:"homeFieldId,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type memberDTO struct {
	TeamID   string `json:"teamId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joinedAt"`
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createTeamRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.rosterService.CreateTeam(ctx, actor, usecase.CreateTeamInput{
		Name:        req.Name,
		MaxPlayers:  req.MaxPlayers,
		SkillLevel:  req.SkillLevel,
		HomeFieldID: req.HomeFieldID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(ctx, item))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	item, err := h.rosterService.GetTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(ctx, item))
}

func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamMembers")
	defer span.End()

	teamID := r.PathValue("teamID")
	members, err := h.rosterService.ListMembers(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list members failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]memberDTO, 0, len(members))
	for _, m := range members {
		items = append(items, memberToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddTeamMember")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := r.PathValue("teamID")
	var req addMemberRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	member, err := h.rosterService.AddMember(ctx, actor, usecase.AddMemberInput{
		TeamID: teamID,
		UserID: req.UserID,
		Role:   team.MemberRole(req.Role),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add member failed", "team_id", teamID, "member_id", req.UserID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, memberToDTO(ctx, member))
}

func (h *Handler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeamMember")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := r.PathValue("teamID")
	userID := r.PathValue("userID")
	if err := h.rosterService.RemoveMember(ctx, actor, teamID, userID); err != nil {
		h.logger.WarnContext(ctx, "remove member failed", "team_id", teamID, "member_id", userID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) DisbandTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DisbandTeam")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := r.PathValue("teamID")
	if err := h.rosterService.DisbandTeam(ctx, actor, teamID); err != nil {
		h.logger.WarnContext(ctx, "disband team failed", "team_id", teamID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "disbanded"})
}

func teamToDTO(ctx context.Context, v team.Team) teamDTO {
	ctx, span := startSpan(ctx, "httpapi.teamToDTO")
	defer span.End()

	return teamDTO{
		ID:          v.ID,
		Name:        v.Name,
		CaptainID:   v.CaptainID,
		MaxPlayers:  v.MaxPlayers,
		SkillLevel:  v.SkillLevel,
		HomeFieldID: v.HomeFieldID,
		Active:      v.Active,
		CreatedAt:   formatTimestamp(v.CreatedAt),
		UpdatedAt:   formatTimestamp(v.UpdatedAt),
	}
}

func memberToDTO(ctx context.Context, v team.Member) memberDTO {
	ctx, span := startSpan(ctx, "httpapi.memberToDTO")
	defer span.End()

	return memberDTO{
		TeamID:   v.TeamID,
		UserID:   v.UserID,
		Role:     string(v.Role),
		Status:   string(v.Status),
		JoinedAt: formatTimestamp(v.JoinedAt),
	}
}
