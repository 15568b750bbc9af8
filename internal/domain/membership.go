package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamMembership links a user to a team with an optional org-scoped
// role. The composite unique index on (team_id, user_id) is what makes
// concurrent add-member calls settle to exactly one row; removal hard
// deletes, so the constraint covers active rows.
type TeamMembership struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_membership_team_user,unique" json:"team_id"`
	Team        Team       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_membership_team_user,unique;index" json:"user_id"`
	User        User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RoleID      *uuid.UUID `gorm:"type:uuid;index" json:"role_id,omitempty"`
	Role        *Role      `gorm:"constraint:OnDelete:SET NULL" json:"role,omitempty"`
	InvitedByID *uuid.UUID `gorm:"type:uuid" json:"invited_by,omitempty"`
	InvitedBy   *User      `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt      *time.Time `gorm:"index" json:"left_at,omitempty"`
}

func (m *TeamMembership) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *TeamMembership) IsActive() bool {
	return m.LeftAt == nil
}

// RoleName is the display role, defaulting to Member when the
// membership carries no explicit role.
func (m *TeamMembership) RoleName() string {
	if m.Role != nil {
		return m.Role.Name
	}
	return string(SystemRoleMember)
}
