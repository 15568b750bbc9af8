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

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "username and email are required", nil)
		return
	}

	user, err := h.authSvc.Signup(r.Context(), service.SignupInput{
		Username:  strings.TrimSpace(req.Username),
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, repository.ErrEmailTaken), errors.Is(err, repository.ErrUsernameTaken):
			response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create account", nil)
		}
		return
	}

	response.JSON(w, r, http.StatusCreated, user)
}

// VerifyEmail accepts the token in the query string (link clicks) or in
// a JSON body. All redemption failures collapse into one generic error.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" && r.Body != nil {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}
	if token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "token is required", nil)
		return
	}

	user, err := h.authSvc.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN", "token is invalid, expired, or already used", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to verify email", nil)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]any{
		"detail":  "email verified",
		"user_id": user.ID,
	})
}

// ResendVerification always reports success so the endpoint cannot be
// used to probe which addresses have accounts.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email is required", nil)
		return
	}

	if err := h.authSvc.ResendVerification(r.Context(), req.Email, clientIP(r), r.UserAgent()); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to process request", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"detail": "if the account exists and is unverified, a new verification email has been sent",
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r loginRequest) resolveIdentifier() string {
	for _, candidate := range []string{r.Identifier, r.Email, r.Username} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	identifier := req.resolveIdentifier()
	if identifier == "" || req.Password == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "identifier and password are required", nil)
		return
	}

	result, err := h.authSvc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeLoginError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "refresh token is required", nil)
		return
	}

	result, err := h.authSvc.Refresh(r.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired refresh token", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			response.Error(w, r, http.StatusForbidden, "ACCOUNT_DISABLED", "account is disabled", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to refresh tokens", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email is required", nil)
		return
	}

	if err := h.authSvc.RequestPasswordReset(r.Context(), req.Email, clientIP(r), r.UserAgent()); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to process request", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"detail": "if the account exists, a password reset email has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "token and password are required", nil)
		return
	}

	if err := h.authSvc.ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrTokenInvalid):
			response.Error(w, r, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN", "token is invalid, expired, or already used", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to reset password", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"detail": "password updated"})
}

func writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid credentials", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		response.Error(w, r, http.StatusBadRequest, "ACCOUNT_DISABLED", "account is disabled", nil)
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Error(w, r, http.StatusBadRequest, "EMAIL_UNVERIFIED", "email address is not verified", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to log in", nil)
	}
}
