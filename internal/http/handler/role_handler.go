package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/service"
)

type RoleHandler struct {
	orgSvc *service.OrgService
	users  repository.UserRepository
}

func NewRoleHandler(orgSvc *service.OrgService, users repository.UserRepository) *RoleHandler {
	return &RoleHandler{orgSvc: orgSvc, users: users}
}

// List returns the roles of one organization. The org filter is
// mandatory and access-checked, so role names cannot be enumerated
// across tenants.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	orgID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("org")))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "org query parameter is required", nil)
		return
	}

	roles, err := h.orgSvc.ListRoles(r.Context(), actor, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "organization not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list roles", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, roles)
}
