package service

import (
	"context"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/repository"
)

// UserService backs the staff-only account administration surface.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, q repository.UserListQuery) (repository.PageResult[domain.User], error) {
	return s.users.ListPaged(q)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(id)
}

// Delete removes the account and everything hanging off it. Membership
// rows are deleted, audit references such as inviter are nulled out.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(id)
}
