package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
)

var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("user is already a member of the team")
)

type MembershipRepository interface {
	// AddMember inserts a membership row. The (team, user) unique index
	// is the arbiter under concurrency: the second of two simultaneous
	// adds gets ErrMembershipExists.
	AddMember(m *domain.TeamMembership) error
	FindActiveMembership(teamID, userID uuid.UUID) (*domain.TeamMembership, error)
	ListActiveMembers(teamID uuid.UUID) ([]domain.TeamMembership, error)
	// SetRole updates the role of the unique active membership. A nil
	// roleID clears the role back to the Member default.
	SetRole(teamID, userID uuid.UUID, roleID *uuid.UUID) error
	// RemoveMember hard-deletes the active membership row.
	RemoveMember(teamID, userID uuid.UUID) error
	// HasActiveMembershipInOrg reports whether the user actively belongs
	// to any team under the org.
	HasActiveMembershipInOrg(userID, orgID uuid.UUID) (bool, error)
}

type GormMembershipRepository struct{ db *gorm.DB }

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) AddMember(m *domain.TeamMembership) error {
	if err := r.db.Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "membership", "add", "conflict")
			return ErrMembershipExists
		}
		observability.RecordRepositoryOperation(context.Background(), "membership", "add", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "add", "success")
	return nil
}

func (r *GormMembershipRepository) FindActiveMembership(teamID, userID uuid.UUID) (*domain.TeamMembership, error) {
	var m domain.TeamMembership
	err := r.db.Preload("Role").
		Where("team_id = ? AND user_id = ? AND left_at IS NULL", teamID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "membership", "find_active", "not_found")
			return nil, ErrMembershipNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "membership", "find_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "find_active", "success")
	return &m, nil
}

func (r *GormMembershipRepository) ListActiveMembers(teamID uuid.UUID) ([]domain.TeamMembership, error) {
	var members []domain.TeamMembership
	err := r.db.Preload("User").Preload("Role").
		Where("team_id = ? AND left_at IS NULL", teamID).
		Order("joined_at asc").
		Find(&members).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "list_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "list_active", "success")
	return members, nil
}

func (r *GormMembershipRepository) SetRole(teamID, userID uuid.UUID, roleID *uuid.UUID) error {
	res := r.db.Model(&domain.TeamMembership{}).
		Where("team_id = ? AND user_id = ? AND left_at IS NULL", teamID, userID).
		Update("role_id", roleID)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "set_role", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "membership", "set_role", "not_found")
		return ErrMembershipNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "set_role", "success")
	return nil
}

func (r *GormMembershipRepository) RemoveMember(teamID, userID uuid.UUID) error {
	res := r.db.Where("team_id = ? AND user_id = ? AND left_at IS NULL", teamID, userID).
		Delete(&domain.TeamMembership{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "remove", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "membership", "remove", "not_found")
		return ErrMembershipNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "remove", "success")
	return nil
}

func (r *GormMembershipRepository) HasActiveMembershipInOrg(userID, orgID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&domain.TeamMembership{}).
		Joins("JOIN teams ON teams.id = team_memberships.team_id").
		Where("team_memberships.user_id = ? AND team_memberships.left_at IS NULL AND teams.org_id = ?", userID, orgID).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "membership", "has_in_org", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "membership", "has_in_org", "success")
	return count > 0, nil
}
