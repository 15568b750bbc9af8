package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemRole is the closed set of seeded role kinds authorization
// decisions are made against. Custom roles keep free-form names and
// never match any of these for write access.
type SystemRole string

const (
	SystemRoleOwner   SystemRole = "Owner"
	SystemRoleManager SystemRole = "Manager"
	SystemRoleMember  SystemRole = "Member"
	SystemRoleViewer  SystemRole = "Viewer"
)

func SystemRoles() []SystemRole {
	return []SystemRole{SystemRoleOwner, SystemRoleManager, SystemRoleMember, SystemRoleViewer}
}

// Role is org-scoped: the same name may exist in different orgs as
// distinct rows. Rows flagged IsSystem are seeded at org creation and
// protected from rename and deletion.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_role_org_name,unique" json:"org_id"`
	Org         Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string       `gorm:"size:50;not null;index:idx_role_org_name,unique" json:"name"`
	Description string       `gorm:"size:1024" json:"description,omitempty"`
	IsSystem    bool         `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *Role) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SystemKind reports which seeded kind this role is, if any.
func (r *Role) SystemKind() (SystemRole, bool) {
	if !r.IsSystem {
		return "", false
	}
	for _, kind := range SystemRoles() {
		if r.Name == string(kind) {
			return kind, true
		}
	}
	return "", false
}
