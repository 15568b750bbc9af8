package repository

import (
	"errors"
	"testing"

	"go-tenant-auth-service/internal/domain"
)

func TestRoleRepositorySeedSystemRolesIsIdempotent(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewRoleRepository(db)
	owner := createTestUser(t, db, "seeder", "seeder@example.com")
	org := createTestOrg(t, db, "Seeded", &owner.ID)

	if err := repo.SeedSystemRoles(org.ID); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := repo.SeedSystemRoles(org.ID); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	roles, err := repo.ListByOrg(org.ID)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != len(domain.SystemRoles()) {
		t.Fatalf("expected %d roles, got %d", len(domain.SystemRoles()), len(roles))
	}
	for _, role := range roles {
		if !role.IsSystem {
			t.Fatalf("expected seeded role %q to be a system role", role.Name)
		}
		if _, ok := role.SystemKind(); !ok {
			t.Fatalf("expected seeded role %q to map to a system kind", role.Name)
		}
	}
}

func TestRoleRepositoryFindByIDInOrgScopesToOrg(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewRoleRepository(db)
	owner := createTestUser(t, db, "scoper", "scoper@example.com")
	orgA := createTestOrg(t, db, "OrgA", &owner.ID)
	orgB := createTestOrg(t, db, "OrgB", &owner.ID)
	if err := repo.SeedSystemRoles(orgA.ID); err != nil {
		t.Fatalf("seed orgA: %v", err)
	}

	role := findRoleByName(t, repo, orgA.ID, "Owner")
	if _, err := repo.FindByIDInOrg(role.ID, orgA.ID); err != nil {
		t.Fatalf("find in own org: %v", err)
	}
	if _, err := repo.FindByIDInOrg(role.ID, orgB.ID); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected cross-org lookup to fail, got %v", err)
	}
}
