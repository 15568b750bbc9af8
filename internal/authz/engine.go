// Package authz derives effective permissions from the tenancy graph:
// who may read or write an organization or team, given ownership and
// active team memberships.
package authz

import (
	"context"
	"errors"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
	"go-tenant-auth-service/internal/repository"
)

type Engine struct {
	memberships repository.MembershipRepository
}

func NewEngine(memberships repository.MembershipRepository) *Engine {
	return &Engine{memberships: memberships}
}

// IsOrgOwner is the first authorization primitive: direct ownership of
// the tenancy boundary.
func (e *Engine) IsOrgOwner(user *domain.User, org *domain.Organization) bool {
	return user != nil && org != nil && org.OwnerID != nil && *org.OwnerID == user.ID
}

// HasTeamRole is the second primitive: an active membership whose
// assigned role is one of the given system kinds. Custom roles never
// match a system kind, whatever they are named.
func (e *Engine) HasTeamRole(user *domain.User, team *domain.Team, kinds ...domain.SystemRole) (bool, error) {
	m, err := e.memberships.FindActiveMembership(team.ID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	if m.Role == nil {
		return false, nil
	}
	kind, ok := m.Role.SystemKind()
	if !ok {
		return false, nil
	}
	for _, want := range kinds {
		if kind == want {
			return true, nil
		}
	}
	return false, nil
}

// RoleNameOf reports the user's display role in the team: the assigned
// role name, "Member" when the membership carries no role, and
// ok=false when the user is not an active member at all.
func (e *Engine) RoleNameOf(user *domain.User, team *domain.Team) (string, bool, error) {
	m, err := e.memberships.FindActiveMembership(team.ID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.RoleName(), true, nil
}

// CanReadOrganization: the owner, or anyone actively on any team under
// the org.
func (e *Engine) CanReadOrganization(ctx context.Context, user *domain.User, org *domain.Organization) (bool, error) {
	if e.IsOrgOwner(user, org) {
		observability.RecordAuthzDecision(ctx, "organization", "read", true)
		return true, nil
	}
	member, err := e.memberships.HasActiveMembershipInOrg(user.ID, org.ID)
	if err != nil {
		return false, err
	}
	observability.RecordAuthzDecision(ctx, "organization", "read", member)
	return member, nil
}

// CanWriteOrganization: the owner only.
func (e *Engine) CanWriteOrganization(ctx context.Context, user *domain.User, org *domain.Organization) bool {
	allowed := e.IsOrgOwner(user, org)
	observability.RecordAuthzDecision(ctx, "organization", "write", allowed)
	return allowed
}

// CanReadTeam: the org owner or any active team member. Requires
// team.Org to be loaded.
func (e *Engine) CanReadTeam(ctx context.Context, user *domain.User, team *domain.Team) (bool, error) {
	if e.IsOrgOwner(user, &team.Org) {
		observability.RecordAuthzDecision(ctx, "team", "read", true)
		return true, nil
	}
	_, err := e.memberships.FindActiveMembership(team.ID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			observability.RecordAuthzDecision(ctx, "team", "read", false)
			return false, nil
		}
		return false, err
	}
	observability.RecordAuthzDecision(ctx, "team", "read", true)
	return true, nil
}

// CanWriteTeam covers update, delete, and every membership mutation:
// the org owner, or a member holding the Owner or Manager system role.
func (e *Engine) CanWriteTeam(ctx context.Context, user *domain.User, team *domain.Team) (bool, error) {
	if e.IsOrgOwner(user, &team.Org) {
		observability.RecordAuthzDecision(ctx, "team", "write", true)
		return true, nil
	}
	allowed, err := e.HasTeamRole(user, team, domain.SystemRoleOwner, domain.SystemRoleManager)
	if err != nil {
		return false, err
	}
	observability.RecordAuthzDecision(ctx, "team", "write", allowed)
	return allowed, nil
}
