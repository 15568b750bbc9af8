package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/authz"
	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/repository"
)

// MemberView is the membership shape returned to callers, flattening
// the joined user and role rows.
type MemberView struct {
	MembershipID uuid.UUID  `json:"membership_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	RoleID       *uuid.UUID `json:"role_id,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
}

// AddMemberInput carries the add-member request body. TeamID is
// optional; when present it must match the team addressed by the URL.
type AddMemberInput struct {
	UserID uuid.UUID
	TeamID *uuid.UUID
	RoleID *uuid.UUID
}

// UpdateTeamInput uses pointers so absent fields are left untouched.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	IsArchived  *bool
}

type TeamService struct {
	teams       repository.TeamRepository
	memberships repository.MembershipRepository
	roles       repository.RoleRepository
	users       repository.UserRepository
	orgs        repository.OrganizationRepository
	engine      *authz.Engine
}

func NewTeamService(
	teams repository.TeamRepository,
	memberships repository.MembershipRepository,
	roles repository.RoleRepository,
	users repository.UserRepository,
	orgs repository.OrganizationRepository,
	engine *authz.Engine,
) *TeamService {
	return &TeamService{teams: teams, memberships: memberships, roles: roles, users: users, orgs: orgs, engine: engine}
}

// Create is restricted to the owner of the parent org. An org the actor
// cannot read surfaces as not-found, an org they can read but do not
// own as forbidden.
func (s *TeamService) Create(ctx context.Context, actor *domain.User, orgID uuid.UUID, name, description string) (*domain.Team, error) {
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
	if !s.engine.IsOrgOwner(actor, org) {
		return nil, ErrForbidden
	}
	team := &domain.Team{OrgID: orgID, Name: name, Description: description, CreatedByID: &actor.ID}
	if err := s.teams.Create(team); err != nil {
		return nil, err
	}
	return s.teams.FindByID(team.ID)
}

func (s *TeamService) Get(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teams.FindByID(teamID)
	if err != nil {
		return nil, err
	}
	readable, err := s.engine.CanReadTeam(ctx, actor, team)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, repository.ErrTeamNotFound
	}
	return team, nil
}

func (s *TeamService) List(ctx context.Context, actor *domain.User) ([]domain.Team, error) {
	return s.teams.ListVisibleTo(actor.ID)
}

func (s *TeamService) Update(ctx context.Context, actor *domain.User, teamID uuid.UUID, in UpdateTeamInput) (*domain.Team, error) {
	team, err := s.writableTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		team.Name = *in.Name
	}
	if in.Description != nil {
		team.Description = *in.Description
	}
	if in.IsArchived != nil {
		team.IsArchived = *in.IsArchived
	}
	if err := s.teams.Update(team); err != nil {
		return nil, err
	}
	return s.teams.FindByID(teamID)
}

func (s *TeamService) Delete(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	if _, err := s.writableTeam(ctx, actor, teamID); err != nil {
		return err
	}
	return s.teams.Delete(teamID)
}

func (s *TeamService) ListMembers(ctx context.Context, actor *domain.User, teamID uuid.UUID) ([]MemberView, error) {
	if _, err := s.Get(ctx, actor, teamID); err != nil {
		return nil, err
	}
	rows, err := s.memberships.ListActiveMembers(teamID)
	if err != nil {
		return nil, err
	}
	views := make([]MemberView, 0, len(rows))
	for i := range rows {
		views = append(views, memberView(&rows[i]))
	}
	return views, nil
}

// AddMember enrolls a user into the team, validating that a body team
// reference matches the addressed team and that any role belongs to the
// same org. Duplicate active enrollment surfaces as ErrMembershipExists
// via the storage level unique index.
func (s *TeamService) AddMember(ctx context.Context, actor *domain.User, teamID uuid.UUID, in AddMemberInput) (*MemberView, error) {
	team, err := s.writableTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	if in.TeamID != nil && *in.TeamID != team.ID {
		return nil, ErrTeamMismatch
	}
	if in.RoleID != nil {
		if _, err := s.roles.FindByIDInOrg(*in.RoleID, team.OrgID); err != nil {
			return nil, ErrCrossOrgRole
		}
	}
	if _, err := s.users.FindByID(in.UserID); err != nil {
		return nil, err
	}
	m := &domain.TeamMembership{
		TeamID:      team.ID,
		UserID:      in.UserID,
		RoleID:      in.RoleID,
		InvitedByID: &actor.ID,
	}
	if err := s.memberships.AddMember(m); err != nil {
		return nil, err
	}
	stored, err := s.memberships.FindActiveMembership(team.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	v := memberView(stored)
	if stored.User.ID == uuid.Nil {
		if u, uerr := s.users.FindByID(in.UserID); uerr == nil {
			v.Username = u.Username
			v.Email = u.Email
		}
	}
	return &v, nil
}

// SetRole reassigns the role of an active member. A nil roleID clears
// the assignment back to the implicit Member role.
func (s *TeamService) SetRole(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID, roleID *uuid.UUID) (*MemberView, error) {
	team, err := s.writableTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	if roleID != nil {
		if _, err := s.roles.FindByIDInOrg(*roleID, team.OrgID); err != nil {
			return nil, ErrCrossOrgRole
		}
	}
	if err := s.memberships.SetRole(teamID, userID, roleID); err != nil {
		return nil, err
	}
	stored, err := s.memberships.FindActiveMembership(teamID, userID)
	if err != nil {
		return nil, err
	}
	v := memberView(stored)
	return &v, nil
}

func (s *TeamService) RemoveMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error {
	if _, err := s.writableTeam(ctx, actor, teamID); err != nil {
		return err
	}
	return s.memberships.RemoveMember(teamID, userID)
}

// writableTeam loads the team and applies the read-then-write gate:
// unreadable teams look absent, readable but unwritable ones are
// forbidden.
func (s *TeamService) writableTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.Get(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	writable, err := s.engine.CanWriteTeam(ctx, actor, team)
	if err != nil {
		return nil, err
	}
	if !writable {
		return nil, ErrForbidden
	}
	return team, nil
}

func memberView(m *domain.TeamMembership) MemberView {
	return MemberView{
		MembershipID: m.ID,
		UserID:       m.UserID,
		Username:     m.User.Username,
		Email:        m.User.Email,
		Role:         m.RoleName(),
		RoleID:       m.RoleID,
		JoinedAt:     m.JoinedAt,
	}
}
