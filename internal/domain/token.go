package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenPurpose string

const (
	TokenPurposeEmailVerify   TokenPurpose = "email_verify"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// SingleUseToken is an expiring, one-time-redeemable credential. A row is
// never mutated back to unconsumed and never refreshed in place; every
// issuance appends a fresh record.
type SingleUseToken struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID    `gorm:"type:uuid;index;not null" json:"user_id"`
	User            User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Token           string       `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Purpose         TokenPurpose `gorm:"size:32;index;not null" json:"purpose"`
	ExpiresAt       time.Time    `gorm:"index;not null" json:"expires_at"`
	ConsumedAt      *time.Time   `gorm:"index" json:"consumed_at,omitempty"`
	CreatedIP       string       `gorm:"size:64" json:"-"`
	CreatedUserAgent string      `gorm:"size:512" json:"-"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (t *SingleUseToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *SingleUseToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

func (t *SingleUseToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *SingleUseToken) IsValid(now time.Time) bool {
	return !t.IsConsumed() && !t.IsExpired(now)
}
