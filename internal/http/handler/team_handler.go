package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/service"
)

type TeamHandler struct {
	teamSvc *service.TeamService
	users   repository.UserRepository
}

func NewTeamHandler(teamSvc *service.TeamService, users repository.UserRepository) *TeamHandler {
	return &TeamHandler{teamSvc: teamSvc, users: users}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	teams, err := h.teamSvc.List(r.Context(), actor)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list teams", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, teams)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	var req struct {
		OrgID       uuid.UUID `json:"org_id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrgID == uuid.Nil || strings.TrimSpace(req.Name) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "org_id and name are required", nil)
		return
	}

	team, err := h.teamSvc.Create(r.Context(), actor, req.OrgID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		writeTeamError(w, r, err, "failed to create team")
		return
	}
	response.JSON(w, r, http.StatusCreated, team)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	team, err := h.teamSvc.Get(r.Context(), actor, teamID)
	if err != nil {
		writeTeamError(w, r, err, "failed to load team")
		return
	}
	response.JSON(w, r, http.StatusOK, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsArchived  *bool   `json:"is_archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "name cannot be empty", nil)
		return
	}

	team, err := h.teamSvc.Update(r.Context(), actor, teamID, service.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		IsArchived:  req.IsArchived,
	})
	if err != nil {
		writeTeamError(w, r, err, "failed to update team")
		return
	}
	response.JSON(w, r, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	if err := h.teamSvc.Delete(r.Context(), actor, teamID); err != nil {
		writeTeamError(w, r, err, "failed to delete team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	members, err := h.teamSvc.ListMembers(r.Context(), actor, teamID)
	if err != nil {
		writeTeamError(w, r, err, "failed to list members")
		return
	}
	response.JSON(w, r, http.StatusOK, members)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID  `json:"user_id"`
		TeamID *uuid.UUID `json:"team_id"`
		RoleID *uuid.UUID `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "user_id is required", nil)
		return
	}

	member, err := h.teamSvc.AddMember(r.Context(), actor, teamID, service.AddMemberInput{
		UserID: req.UserID,
		TeamID: req.TeamID,
		RoleID: req.RoleID,
	})
	if err != nil {
		writeTeamError(w, r, err, "failed to add member")
		return
	}
	response.JSON(w, r, http.StatusCreated, member)
}

func (h *TeamHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID  `json:"user_id"`
		RoleID *uuid.UUID `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "user_id is required", nil)
		return
	}

	member, err := h.teamSvc.SetRole(r.Context(), actor, teamID, req.UserID, req.RoleID)
	if err != nil {
		writeTeamError(w, r, err, "failed to update member role")
		return
	}
	response.JSON(w, r, http.StatusOK, member)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := h.actorAndTeamID(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("user")))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "user query parameter is required", nil)
		return
	}

	if err := h.teamSvc.RemoveMember(r.Context(), actor, teamID, userID); err != nil {
		writeTeamError(w, r, err, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) actorAndTeamID(w http.ResponseWriter, r *http.Request) (actor *domain.User, teamID uuid.UUID, ok bool) {
	user, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return nil, uuid.Nil, false
	}
	id, err := uuidParam(r, "team_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id", nil)
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func writeTeamError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	switch {
	case errors.Is(err, repository.ErrTeamNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "team not found", nil)
	case errors.Is(err, repository.ErrOrganizationNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "organization not found", nil)
	case errors.Is(err, repository.ErrMembershipNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "active membership not found", nil)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action", nil)
	case errors.Is(err, service.ErrTeamMismatch):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "team reference does not match the addressed team", nil)
	case errors.Is(err, service.ErrCrossOrgRole):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "role does not belong to the team's organization", nil)
	case errors.Is(err, repository.ErrTeamExists):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "team name already in use within organization", nil)
	case errors.Is(err, repository.ErrMembershipExists):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "user is already an active member of this team", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", internalMsg, nil)
	}
}
