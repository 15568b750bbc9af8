package repository

import (
	"errors"
	"testing"
	"time"

	"go-tenant-auth-service/internal/domain"
)

func TestUserRepositoryCreateNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	user := &domain.User{Username: "alice", Email: "  Alice@Example.COM ", PasswordHash: "x"}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	dupEmail := &domain.User{Username: "alice2", Email: "ALICE@example.com", PasswordHash: "x"}
	if err := repo.Create(dupEmail); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	dupUsername := &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	if err := repo.Create(dupUsername); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserRepositoryFindByEmailNormalizesLookup(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	created := createTestUser(t, db, "bob", "bob@example.com")

	found, err := repo.FindByEmail("  BOB@Example.com ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, found.ID)
	}

	if _, err := repo.FindByEmail("nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryMarkEmailVerifiedIsIdempotent(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "carol", "carol@example.com")

	first := time.Now().UTC().Truncate(time.Second)
	if err := repo.MarkEmailVerified(user.ID, first); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := repo.MarkEmailVerified(user.ID, first.Add(time.Hour)); err != nil {
		t.Fatalf("second verify should be a noop: %v", err)
	}

	stored, err := repo.FindByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.EmailVerifiedAt == nil {
		t.Fatal("expected email_verified_at set")
	}
	if stored.EmailVerifiedAt.After(first.Add(time.Minute)) {
		t.Fatalf("second verify overwrote original timestamp: %v", stored.EmailVerifiedAt)
	}
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "dave", "dave@example.com")

	changedAt := time.Now().UTC()
	if err := repo.UpdatePassword(user.ID, "new-hash", changedAt); err != nil {
		t.Fatalf("update password: %v", err)
	}
	stored, err := repo.FindByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.PasswordHash != "new-hash" {
		t.Fatalf("expected updated hash, got %q", stored.PasswordHash)
	}
	if stored.LastPasswordChangeAt == nil {
		t.Fatal("expected last_password_change_at set")
	}
}

func TestUserRepositoryListPagedFiltersAndPaginates(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	for _, u := range []struct {
		username, email string
		verified        bool
	}{
		{"erin", "erin@example.com", true},
		{"frank", "frank@example.com", false},
		{"grace", "grace@example.com", true},
	} {
		user := createTestUser(t, db, u.username, u.email)
		if u.verified {
			if err := repo.MarkEmailVerified(user.ID, time.Now().UTC()); err != nil {
				t.Fatalf("verify %s: %v", u.username, err)
			}
		}
	}

	verified := true
	page, err := repo.ListPaged(UserListQuery{
		PageRequest: PageRequest{Page: 1, PageSize: 1},
		SortBy:      "username",
		SortOrder:   "asc",
		Verified:    &verified,
	})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 verified users, got %d", page.Total)
	}
	if len(page.Items) != 1 || page.Items[0].Username != "erin" {
		t.Fatalf("unexpected first page: %+v", page.Items)
	}
	if page.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", page.TotalPages)
	}

	byUsername, err := repo.ListPaged(UserListQuery{Username: "frank"})
	if err != nil {
		t.Fatalf("list by username: %v", err)
	}
	if byUsername.Total != 1 || byUsername.Items[0].Email != "frank@example.com" {
		t.Fatalf("unexpected username filter result: %+v", byUsername.Items)
	}
}

func TestUserRepositoryDeleteCleansUpReferences(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	owner := createTestUser(t, db, "henry", "henry@example.com")
	member := createTestUser(t, db, "iris", "iris@example.com")

	org := createTestOrg(t, db, "Acme", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Core")

	memberships := NewMembershipRepository(db)
	if err := memberships.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID, InvitedByID: &owner.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	tokens := NewTokenRepository(db)
	if err := tokens.Create(&domain.SingleUseToken{
		UserID:    member.ID,
		Token:     "tok-member",
		Purpose:   domain.TokenPurposeEmailVerify,
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := repo.Delete(member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if _, err := repo.FindByID(member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected member gone, got %v", err)
	}
	var membershipCount int64
	if err := db.Model(&domain.TeamMembership{}).Where("user_id = ?", member.ID).Count(&membershipCount).Error; err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if membershipCount != 0 {
		t.Fatalf("expected memberships deleted, got %d", membershipCount)
	}
	var tokenCount int64
	if err := db.Model(&domain.SingleUseToken{}).Where("user_id = ?", member.ID).Count(&tokenCount).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if tokenCount != 0 {
		t.Fatalf("expected tokens deleted, got %d", tokenCount)
	}

	// Deleting the owner nullifies the org owner instead of dropping the org.
	if err := repo.Delete(owner.ID); err != nil {
		t.Fatalf("delete owner: %v", err)
	}
	stored, err := NewOrganizationRepository(db).FindByID(org.ID)
	if err != nil {
		t.Fatalf("reload org: %v", err)
	}
	if stored.OwnerID != nil {
		t.Fatalf("expected org owner nulled, got %v", stored.OwnerID)
	}

	if err := repo.Delete(member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for repeat delete, got %v", err)
	}
}

func TestUniqueViolationErrorNamesTheRightField(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"sqlite username index", errors.New("UNIQUE constraint failed: users.username"), ErrUsernameTaken},
		{"sqlite email index", errors.New("UNIQUE constraint failed: users.email"), ErrEmailTaken},
		{"postgres username index", errors.New(`duplicate key value violates unique constraint "idx_users_username"`), ErrUsernameTaken},
		{"postgres email index", errors.New(`duplicate key value violates unique constraint "idx_users_email"`), ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := uniqueViolationError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("uniqueViolationError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestUserRepositoryConcurrentDuplicateUsername(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		email := "race" + string(rune('a'+i)) + "@example.com"
		go func(email string) {
			errs <- repo.Create(&domain.User{
				Username:     "racer",
				Email:        email,
				PasswordHash: "x",
				IsActive:     true,
			})
		}(email)
	}

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrUsernameTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected one winner and one username conflict, got wins=%d conflicts=%d", wins, conflicts)
	}
}
