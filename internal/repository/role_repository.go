package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
)

var ErrRoleNotFound = errors.New("role not found")

type RoleRepository interface {
	ListByOrg(orgID uuid.UUID) ([]domain.Role, error)
	// FindByIDInOrg resolves a role only when it belongs to the given
	// org; a role from another org is reported as not found.
	FindByIDInOrg(roleID, orgID uuid.UUID) (*domain.Role, error)
	// SeedSystemRoles get-or-creates the four system roles for the org.
	// Safe to call repeatedly.
	SeedSystemRoles(orgID uuid.UUID) error
}

type GormRoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

func (r *GormRoleRepository) ListByOrg(orgID uuid.UUID) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.Where("org_id = ?", orgID).Order("name asc").Find(&roles).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "role", "list_by_org", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "role", "list_by_org", "success")
	return roles, nil
}

func (r *GormRoleRepository) FindByIDInOrg(roleID, orgID uuid.UUID) (*domain.Role, error) {
	var role domain.Role
	err := r.db.Where("id = ? AND org_id = ?", roleID, orgID).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "role", "find_in_org", "not_found")
			return nil, ErrRoleNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "role", "find_in_org", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "role", "find_in_org", "success")
	return &role, nil
}

func (r *GormRoleRepository) SeedSystemRoles(orgID uuid.UUID) error {
	for _, kind := range domain.SystemRoles() {
		role := domain.Role{OrgID: orgID, Name: string(kind), IsSystem: true}
		err := r.db.Where("org_id = ? AND name = ?", orgID, string(kind)).
			FirstOrCreate(&role).Error
		if err != nil {
			// A concurrent seeder may win the insert; the unique index
			// turns that into a duplicate we can treat as done.
			if isUniqueViolation(err) {
				continue
			}
			observability.RecordRepositoryOperation(context.Background(), "role", "seed_system", "error")
			return err
		}
	}
	observability.RecordRepositoryOperation(context.Background(), "role", "seed_system", "success")
	return nil
}
