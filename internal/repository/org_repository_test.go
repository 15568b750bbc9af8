package repository

import (
	"errors"
	"testing"

	"go-tenant-auth-service/internal/domain"
)

func TestOrganizationRepositoryCreateDerivesSlugAndRejectsConflicts(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewOrganizationRepository(db)
	owner := createTestUser(t, db, "sowner", "sowner@example.com")

	org := &domain.Organization{Name: "Blue Sky Labs!", OwnerID: &owner.ID}
	if err := repo.Create(org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	if org.Slug != "blue-sky-labs" {
		t.Fatalf("unexpected slug %q", org.Slug)
	}

	// "Blue Sky Labs?" slugifies to the same value; the unique index
	// turns the collision into a conflict.
	dup := &domain.Organization{Name: "Blue Sky Labs?", OwnerID: &owner.ID}
	if err := repo.Create(dup); !errors.Is(err, ErrOrganizationExists) {
		t.Fatalf("expected ErrOrganizationExists for slug collision, got %v", err)
	}
	sameName := &domain.Organization{Name: "Blue Sky Labs!", OwnerID: &owner.ID}
	if err := repo.Create(sameName); !errors.Is(err, ErrOrganizationExists) {
		t.Fatalf("expected ErrOrganizationExists for name collision, got %v", err)
	}
}

func TestOrganizationRepositoryListVisibleTo(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewOrganizationRepository(db)
	memberships := NewMembershipRepository(db)
	owner := createTestUser(t, db, "vowner", "vowner@example.com")
	stranger := createTestUser(t, db, "vstranger", "vstranger@example.com")

	owned := createTestOrg(t, db, "Owned", &owner.ID)
	joined := createTestOrg(t, db, "Joined", &stranger.ID)
	createTestOrg(t, db, "Hidden", &stranger.ID)

	team := createTestTeam(t, db, joined.ID, "Crew")
	if err := memberships.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: owner.ID}); err != nil {
		t.Fatalf("add owner to other org: %v", err)
	}

	visible, err := repo.ListVisibleTo(owner.ID)
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible orgs, got %d: %+v", len(visible), visible)
	}
	names := map[string]bool{}
	for _, o := range visible {
		names[o.Name] = true
	}
	if !names[owned.Name] || !names[joined.Name] {
		t.Fatalf("expected Owned and Joined visible, got %v", names)
	}
}

func TestOrganizationRepositoryDeleteCascades(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewOrganizationRepository(db)
	roles := NewRoleRepository(db)
	memberships := NewMembershipRepository(db)
	owner := createTestUser(t, db, "downer", "downer@example.com")
	member := createTestUser(t, db, "dmember", "dmember@example.com")

	org := createTestOrg(t, db, "Doomed", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Last")
	if err := roles.SeedSystemRoles(org.ID); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if err := memberships.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if err := repo.Delete(org.ID); err != nil {
		t.Fatalf("delete org: %v", err)
	}
	if _, err := repo.FindByID(org.ID); !errors.Is(err, ErrOrganizationNotFound) {
		t.Fatalf("expected org gone, got %v", err)
	}
	for model, label := range map[interface{}]string{
		&domain.Team{}:           "teams",
		&domain.Role{}:           "roles",
		&domain.TeamMembership{}: "memberships",
	} {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", label, err)
		}
		if count != 0 {
			t.Fatalf("expected %s cascaded, found %d", label, count)
		}
	}

	// The member account survives the org teardown.
	users := NewUserRepository(db)
	if _, err := users.FindByID(member.ID); err != nil {
		t.Fatalf("expected member account intact: %v", err)
	}
}
