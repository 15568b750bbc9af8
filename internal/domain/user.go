package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username             string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email                string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash         string     `gorm:"size:128;not null" json:"-"`
	FirstName            string     `gorm:"size:150" json:"first_name"`
	LastName             string     `gorm:"size:150" json:"last_name"`
	AvatarURL            string     `gorm:"size:512" json:"avatar_url,omitempty"`
	Timezone             string     `gorm:"size:64;not null;default:UTC" json:"timezone"`
	IsActive             bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff              bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser          bool       `gorm:"not null;default:false" json:"is_superuser"`
	EmailVerifiedAt      *time.Time `gorm:"index" json:"email_verified_at,omitempty"`
	LastPasswordChangeAt *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// NormalizeEmail is the canonical form every lookup and uniqueness
// check operates on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
