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
	ErrTeamNotFound = errors.New("team not found")
	ErrTeamExists   = errors.New("team name already in use within organization")
)

type TeamRepository interface {
	Create(team *domain.Team) error
	FindByID(id uuid.UUID) (*domain.Team, error)
	Update(team *domain.Team) error
	Delete(id uuid.UUID) error
	// ListVisibleTo returns teams in orgs the user owns plus teams the
	// user actively belongs to.
	ListVisibleTo(userID uuid.UUID) ([]domain.Team, error)
}

type GormTeamRepository struct{ db *gorm.DB }

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

func (r *GormTeamRepository) Create(team *domain.Team) error {
	team.Name = strings.TrimSpace(team.Name)
	if err := r.db.Create(team).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "team", "create", "conflict")
			return ErrTeamExists
		}
		observability.RecordRepositoryOperation(context.Background(), "team", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "team", "create", "success")
	return nil
}

func (r *GormTeamRepository) FindByID(id uuid.UUID) (*domain.Team, error) {
	var team domain.Team
	err := r.db.Preload("Org").First(&team, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "team", "find_by_id", "not_found")
			return nil, ErrTeamNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "team", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "team", "find_by_id", "success")
	return &team, nil
}

func (r *GormTeamRepository) Update(team *domain.Team) error {
	res := r.db.Model(&domain.Team{}).Where("id = ?", team.ID).Updates(map[string]any{
		"name":        strings.TrimSpace(team.Name),
		"description": team.Description,
		"is_archived": team.IsArchived,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			observability.RecordRepositoryOperation(context.Background(), "team", "update", "conflict")
			return ErrTeamExists
		}
		observability.RecordRepositoryOperation(context.Background(), "team", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "team", "update", "not_found")
		return ErrTeamNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "team", "update", "success")
	return nil
}

func (r *GormTeamRepository) Delete(id uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&domain.TeamMembership{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Team{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTeamNotFound
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrTeamNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "team", "delete", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "team", "delete", "success")
	return nil
}

func (r *GormTeamRepository) ListVisibleTo(userID uuid.UUID) ([]domain.Team, error) {
	ownedOrgIDs := r.db.Model(&domain.Organization{}).Select("id").Where("owner_id = ?", userID)
	memberTeamIDs := r.db.Model(&domain.TeamMembership{}).Select("team_id").
		Where("user_id = ? AND left_at IS NULL", userID)

	var teams []domain.Team
	err := r.db.Preload("Org").
		Where("org_id IN (?)", ownedOrgIDs).
		Or("id IN (?)", memberTeamIDs).
		Order("name asc").
		Find(&teams).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "team", "list_visible", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "team", "list_visible", "success")
	return teams, nil
}
