package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/repository"
)

func TestUserServiceListPages(t *testing.T) {
	db := newServiceDBForTest(t)
	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, u := range []*domain.User{
		{Username: "alba", Email: "alba@example.com", PasswordHash: "x", IsActive: true, EmailVerifiedAt: &now},
		{Username: "bruno", Email: "bruno@example.com", PasswordHash: "x", IsActive: true},
		{Username: "carla", Email: "carla@example.com", PasswordHash: "x", IsActive: true, EmailVerifiedAt: &now},
	} {
		if err := users.Create(u); err != nil {
			t.Fatalf("create %s: %v", u.Username, err)
		}
	}

	verified := true
	page, err := svc.List(ctx, repository.UserListQuery{
		PageRequest: repository.PageRequest{Page: 1, PageSize: 1},
		SortBy:      "username",
		Verified:    &verified,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected page total=%d pages=%d items=%d", page.Total, page.TotalPages, len(page.Items))
	}
	if page.Items[0].Username != "alba" {
		t.Fatalf("expected alba first, got %q", page.Items[0].Username)
	}
}

func TestUserServiceGetAndDelete(t *testing.T) {
	db := newServiceDBForTest(t)
	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	ctx := context.Background()

	user := &domain.User{Username: "dino", Email: "dino@example.com", PasswordHash: "x", IsActive: true}
	if err := users.Create(user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("got wrong user %s", got.ID)
	}

	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, user.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}
