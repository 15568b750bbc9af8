package handler

import (
	"errors"
	"net/http"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/service"
)

const avatarFormMemoryLimit = 4 << 20

type MeHandler struct {
	users   repository.UserRepository
	avatars service.AvatarStore
}

func NewMeHandler(users repository.UserRepository, avatars service.AvatarStore) *MeHandler {
	return &MeHandler{users: users, avatars: avatars}
}

type profileView struct {
	*domain.User
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Me returns the caller's profile. The stored avatar value is an
// object key, so it is exchanged for a short-lived presigned URL here.
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}

	view := profileView{User: actor}
	if actor.AvatarURL != "" && h.avatars != nil {
		if signed, err := h.avatars.PresignURL(r.Context(), actor.AvatarURL); err == nil {
			view.AvatarURL = signed
		}
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *MeHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	if h.avatars == nil {
		response.Error(w, r, http.StatusServiceUnavailable, "INTERNAL", "avatar storage is not configured", nil)
		return
	}

	if err := r.ParseMultipartForm(avatarFormMemoryLimit); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to parse multipart form", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "avatar file is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	previousKey := actor.AvatarURL
	objectKey, err := h.avatars.Store(r.Context(), actor.ID, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarTooLarge):
			response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "avatar exceeds the size limit", nil)
		case errors.Is(err, service.ErrAvatarUnsupported):
			response.Error(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "avatar must be a JPEG or PNG image", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to store avatar", nil)
		}
		return
	}

	if err := h.users.SetAvatarURL(actor.ID, objectKey); err != nil {
		_ = h.avatars.Remove(r.Context(), objectKey)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to store avatar", nil)
		return
	}
	if previousKey != "" {
		_ = h.avatars.Remove(r.Context(), previousKey)
	}

	signed, err := h.avatars.PresignURL(r.Context(), objectKey)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to generate avatar URL", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"object_key": objectKey,
		"avatar_url": signed,
	})
}

func (h *MeHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.users)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	if actor.AvatarURL == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.users.SetAvatarURL(actor.ID, ""); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to remove avatar", nil)
		return
	}
	if h.avatars != nil {
		_ = h.avatars.Remove(r.Context(), actor.AvatarURL)
	}
	w.WriteHeader(http.StatusNoContent)
}
