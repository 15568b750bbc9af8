package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_team_org_name,unique" json:"org_id"`
	Org         Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string       `gorm:"size:150;not null;index:idx_team_org_name,unique" json:"name"`
	Description string       `gorm:"size:1024" json:"description,omitempty"`
	IsArchived  bool         `gorm:"not null;default:false;index" json:"is_archived"`
	CreatedByID *uuid.UUID   `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedBy   *User        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Team) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
