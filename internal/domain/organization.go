package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenancy boundary. Teams and roles live under it
// and are removed with it; the owner reference clears when the owning
// user is deleted.
type Organization struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Slug      string     `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	OwnerID   *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Owner     *User      `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

func (o *Organization) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Slug == "" {
		o.Slug = Slugify(o.Name)
	}
	return nil
}

// Slugify derives a URL-safe slug deterministically from a name:
// lowercase, runs of non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 200 {
		slug = slug[:200]
	}
	return slug
}
