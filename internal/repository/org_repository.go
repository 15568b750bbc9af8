package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationExists   = errors.New("organization name or slug already in use")
)

type OrganizationRepository interface {
	Create(org *domain.Organization) error
	FindByID(id uuid.UUID) (*domain.Organization, error)
	Update(org *domain.Organization) error
	Delete(id uuid.UUID) error
	// ListVisibleTo returns orgs the user owns plus orgs where the user
	// holds an active membership in any team, without duplicates.
	ListVisibleTo(userID uuid.UUID) ([]domain.Organization, error)
}

type GormOrganizationRepository struct{ db *gorm.DB }

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

func (r *GormOrganizationRepository) Create(org *domain.Organization) error {
	org.Name = strings.TrimSpace(org.Name)
	if err := r.db.Create(org).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "organization", "create", "conflict")
			return ErrOrganizationExists
		}
		observability.RecordRepositoryOperation(context.Background(), "organization", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "organization", "create", "success")
	return nil
}

func (r *GormOrganizationRepository) FindByID(id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "organization", "find_by_id", "not_found")
			return nil, ErrOrganizationNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "organization", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "organization", "find_by_id", "success")
	return &org, nil
}

func (r *GormOrganizationRepository) Update(org *domain.Organization) error {
	res := r.db.Model(&domain.Organization{}).Where("id = ?", org.ID).Updates(map[string]any{
		"name": strings.TrimSpace(org.Name),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			observability.RecordRepositoryOperation(context.Background(), "organization", "update", "conflict")
			return ErrOrganizationExists
		}
		observability.RecordRepositoryOperation(context.Background(), "organization", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "organization", "update", "not_found")
		return ErrOrganizationNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "organization", "update", "success")
	return nil
}

// Delete removes the org and its dependents: teams (with their
// memberships) and roles go with it.
func (r *GormOrganizationRepository) Delete(id uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		teamIDs := tx.Model(&domain.Team{}).Select("id").Where("org_id = ?", id)
		if err := tx.Where("team_id IN (?)", teamIDs).Delete(&domain.TeamMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", id).Delete(&domain.Team{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", id).Delete(&domain.Role{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Organization{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrganizationNotFound
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrOrganizationNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "organization", "delete", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "organization", "delete", "success")
	return nil
}

func (r *GormOrganizationRepository) ListVisibleTo(userID uuid.UUID) ([]domain.Organization, error) {
	memberOrgIDs := r.db.Model(&domain.TeamMembership{}).
		Select("teams.org_id").
		Joins("JOIN teams ON teams.id = team_memberships.team_id").
		Where("team_memberships.user_id = ? AND team_memberships.left_at IS NULL", userID)

	var orgs []domain.Organization
	err := r.db.
		Where("owner_id = ?", userID).
		Or("id IN (?)", memberOrgIDs).
		Order("name asc").
		Find(&orgs).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "organization", "list_visible", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "organization", "list_visible", "success")
	return orgs, nil
}
