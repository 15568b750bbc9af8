package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-tenant-auth-service/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.SingleUseToken{},
		&domain.Organization{},
		&domain.Team{},
		&domain.Role{},
		&domain.TeamMembership{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
	}
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createTestOrg(t *testing.T, db *gorm.DB, name string, ownerID *uuid.UUID) *domain.Organization {
	t.Helper()
	org := &domain.Organization{Name: name, OwnerID: ownerID}
	if err := NewOrganizationRepository(db).Create(org); err != nil {
		t.Fatalf("create org %s: %v", name, err)
	}
	return org
}

func createTestTeam(t *testing.T, db *gorm.DB, orgID uuid.UUID, name string) *domain.Team {
	t.Helper()
	team := &domain.Team{OrgID: orgID, Name: name}
	if err := NewTeamRepository(db).Create(team); err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return team
}
