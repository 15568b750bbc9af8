package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/domain"
)

func TestMembershipRepositoryAddAndDuplicate(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewMembershipRepository(db)
	owner := createTestUser(t, db, "owner", "owner@example.com")
	member := createTestUser(t, db, "member", "member@example.com")
	org := createTestOrg(t, db, "Acme", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Core")

	if err := repo.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := repo.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID}); !errors.Is(err, ErrMembershipExists) {
		t.Fatalf("expected ErrMembershipExists, got %v", err)
	}

	m, err := repo.FindActiveMembership(team.ID, member.ID)
	if err != nil {
		t.Fatalf("find active membership: %v", err)
	}
	if m.RoleName() != "Member" {
		t.Fatalf("expected default role Member, got %q", m.RoleName())
	}
}

func TestMembershipRepositoryConcurrentAddOneWinner(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewMembershipRepository(db)
	owner := createTestUser(t, db, "cowner", "cowner@example.com")
	member := createTestUser(t, db, "cmember", "cmember@example.com")
	org := createTestOrg(t, db, "Croft", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Ops")

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		idx := i
		go func() {
			defer wg.Done()
			errs[idx] = repo.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID})
		}()
	}
	wg.Wait()

	success := 0
	conflict := 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrMembershipExists):
			conflict++
		default:
			t.Fatalf("unexpected add error: %v", err)
		}
	}
	if success != 1 || conflict != 1 {
		t.Fatalf("expected one winner, got success=%d conflict=%d", success, conflict)
	}
}

func TestMembershipRepositorySetRoleAndRemove(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewMembershipRepository(db)
	roles := NewRoleRepository(db)
	owner := createTestUser(t, db, "rowner", "rowner@example.com")
	member := createTestUser(t, db, "rmember", "rmember@example.com")
	org := createTestOrg(t, db, "Rose", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Design")
	if err := roles.SeedSystemRoles(org.ID); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	manager := findRoleByName(t, roles, org.ID, "Manager")

	if err := repo.SetRole(team.ID, member.ID, &manager.ID); !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected set role on non-member to fail, got %v", err)
	}

	if err := repo.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := repo.SetRole(team.ID, member.ID, &manager.ID); err != nil {
		t.Fatalf("set role: %v", err)
	}
	m, err := repo.FindActiveMembership(team.ID, member.ID)
	if err != nil {
		t.Fatalf("find membership: %v", err)
	}
	if m.RoleName() != "Manager" {
		t.Fatalf("expected Manager, got %q", m.RoleName())
	}

	if err := repo.SetRole(team.ID, member.ID, nil); err != nil {
		t.Fatalf("clear role: %v", err)
	}
	m, err = repo.FindActiveMembership(team.ID, member.ID)
	if err != nil {
		t.Fatalf("find membership after clear: %v", err)
	}
	if m.RoleName() != "Member" {
		t.Fatalf("expected role cleared to Member, got %q", m.RoleName())
	}

	if err := repo.RemoveMember(team.ID, member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if err := repo.RemoveMember(team.ID, member.ID); !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected repeat remove to fail, got %v", err)
	}
	var count int64
	if err := db.Model(&domain.TeamMembership{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected membership row hard-deleted, found %d", count)
	}
}

func TestMembershipRepositoryHasActiveMembershipInOrg(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewMembershipRepository(db)
	owner := createTestUser(t, db, "howner", "howner@example.com")
	member := createTestUser(t, db, "hmember", "hmember@example.com")
	org := createTestOrg(t, db, "Hive", &owner.ID)
	otherOrg := createTestOrg(t, db, "Other", &owner.ID)
	team := createTestTeam(t, db, org.ID, "Sales")

	if err := repo.AddMember(&domain.TeamMembership{TeamID: team.ID, UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	in, err := repo.HasActiveMembershipInOrg(member.ID, org.ID)
	if err != nil {
		t.Fatalf("has membership: %v", err)
	}
	if !in {
		t.Fatal("expected membership in org")
	}
	out, err := repo.HasActiveMembershipInOrg(member.ID, otherOrg.ID)
	if err != nil {
		t.Fatalf("has membership other org: %v", err)
	}
	if out {
		t.Fatal("membership must not leak across orgs")
	}
}

func findRoleByName(t *testing.T, roles RoleRepository, orgID uuid.UUID, name string) *domain.Role {
	t.Helper()
	list, err := roles.ListByOrg(orgID)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	t.Fatalf("role %q not found in org %s", name, orgID)
	return nil
}
