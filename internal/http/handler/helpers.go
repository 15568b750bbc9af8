package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/http/middleware"
	"go-tenant-auth-service/internal/repository"
)

var errMissingAuthContext = errors.New("missing auth context")

// resolveActor loads the full user row behind the request's verified
// claims. Handlers act on the stored account, not on token snapshots.
func resolveActor(r *http.Request, users repository.UserRepository) (*domain.User, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil, errMissingAuthContext
	}
	id, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}
	user, err := users.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errMissingAuthContext
	}
	return user, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
