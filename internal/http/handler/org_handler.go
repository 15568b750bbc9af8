package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/service"
)

type OrgHandler struct {
	orgSvc *service.OrgService
	users  repository.UserRepository
}

func NewOrgHandler(orgSvc *service.OrgService, users repository.UserRepository) *OrgHandler {
	return &OrgHandler{orgSvc: orgSvc, users: users}
}

func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	orgs, err := h.orgSvc.List(r.Context(), actor)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list organizations", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, orgs)
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}

	org, err := h.orgSvc.Create(r.Context(), actor, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "organization name or slug already in use", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create organization", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, org)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	orgID, err := uuidParam(r, "org_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid organization id", nil)
		return
	}

	org, err := h.orgSvc.Get(r.Context(), actor, orgID)
	if err != nil {
		writeOrgError(w, r, err, "failed to load organization")
		return
	}
	response.JSON(w, r, http.StatusOK, org)
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	orgID, err := uuidParam(r, "org_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid organization id", nil)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}

	org, err := h.orgSvc.Update(r.Context(), actor, orgID, strings.TrimSpace(req.Name))
	if err != nil {
		writeOrgError(w, r, err, "failed to update organization")
		return
	}
	response.JSON(w, r, http.StatusOK, org)
}

func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	orgID, err := uuidParam(r, "org_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid organization id", nil)
		return
	}

	if err := h.orgSvc.Delete(r.Context(), actor, orgID); err != nil {
		writeOrgError(w, r, err, "failed to delete organization")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeOrgError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	switch {
	case errors.Is(err, repository.ErrOrganizationNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "organization not found", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action", nil)
	case errors.Is(err, repository.ErrOrganizationExists):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "organization name or slug already in use", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", internalMsg, nil)
	}
}
