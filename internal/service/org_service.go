package service

import (
	"context"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/authz"
	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/repository"
)

// OrgService orchestrates organization lifecycle and visibility.
// Resources the caller may not read surface as not-found rather than
// forbidden, so denial does not confirm existence.
type OrgService struct {
	orgs   repository.OrganizationRepository
	roles  repository.RoleRepository
	engine *authz.Engine
}

func NewOrgService(orgs repository.OrganizationRepository, roles repository.RoleRepository, engine *authz.Engine) *OrgService {
	return &OrgService{orgs: orgs, roles: roles, engine: engine}
}

// Create persists the org with the actor as owner and seeds the four
// system roles. Seeding is get-or-create, so a retried create cannot
// duplicate them.
func (s *OrgService) Create(ctx context.Context, owner *domain.User, name string) (*domain.Organization, error) {
	org := &domain.Organization{Name: name, OwnerID: &owner.ID}
	if err := s.orgs.Create(org); err != nil {
		return nil, err
	}
	if err := s.roles.SeedSystemRoles(org.ID); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrgService) Get(ctx context.Context, actor *domain.User, orgID uuid.UUID) (*domain.Organization, error) {
	org, err := s.orgs.FindByID(orgID)
	if err != nil {
		return nil, err
	}
	readable, err := s.engine.CanReadOrganization(ctx, actor, org)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, repository.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *OrgService) List(ctx context.Context, actor *domain.User) ([]domain.Organization, error) {
	return s.orgs.ListVisibleTo(actor.ID)
}

func (s *OrgService) Update(ctx context.Context, actor *domain.User, orgID uuid.UUID, name string) (*domain.Organization, error) {
	org, err := s.Get(ctx, actor, orgID)
	if err != nil {
		return nil, err
	}
	if !s.engine.CanWriteOrganization(ctx, actor, org) {
		return nil, ErrForbidden
	}
	org.Name = name
	if err := s.orgs.Update(org); err != nil {
		return nil, err
	}
	return s.orgs.FindByID(orgID)
}

func (s *OrgService) Delete(ctx context.Context, actor *domain.User, orgID uuid.UUID) error {
	org, err := s.Get(ctx, actor, orgID)
	if err != nil {
		return err
	}
	if !s.engine.CanWriteOrganization(ctx, actor, org) {
		return ErrForbidden
	}
	return s.orgs.Delete(orgID)
}

// ListRoles lists the roles of an org the actor can read. The caller
// supplied org filter is authorized here instead of being trusted as a
// plain query parameter.
func (s *OrgService) ListRoles(ctx context.Context, actor *domain.User, orgID uuid.UUID) ([]domain.Role, error) {
	if _, err := s.Get(ctx, actor, orgID); err != nil {
		return nil, err
	}
	return s.roles.ListByOrg(orgID)
}
