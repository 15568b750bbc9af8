package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/service"
)

// AdminUserHandler backs the staff-only account administration routes.
type AdminUserHandler struct {
	userSvc *service.UserService
}

func NewAdminUserHandler(userSvc *service.UserService) *AdminUserHandler {
	return &AdminUserHandler{userSvc: userSvc}
}

func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := repository.UserListQuery{
		PageRequest: repository.PageRequest{
			Page:     queryInt(r, "page"),
			PageSize: queryInt(r, "page_size"),
		},
		SortBy:    strings.TrimSpace(r.URL.Query().Get("sort")),
		SortOrder: strings.TrimSpace(r.URL.Query().Get("order")),
		Email:     strings.TrimSpace(r.URL.Query().Get("email")),
		Username:  strings.TrimSpace(r.URL.Query().Get("username")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("verified")); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "verified must be a boolean", nil)
			return
		}
		q.Verified = &verified
	}

	page, err := h.userSvc.List(r.Context(), q)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *AdminUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	user, err := h.userSvc.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	if err := h.userSvc.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete user", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
