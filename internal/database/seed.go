package database

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
)

// SeedReport describes what a seed run changed so operators can tell a
// first run from a repeat.
type SeedReport struct {
	Noop           bool
	PromotedStaff  int
	VerifiedEmails int
}

// SeedSync promotes the bootstrap admin account to staff and marks its
// email verified. It is idempotent: rerunning against an already
// promoted account reports a noop. An empty adminEmail is a noop by
// definition, so deployments without a bootstrap admin stay untouched.
func SeedSync(db *gorm.DB, adminEmail string) (*SeedReport, error) {
	report := &SeedReport{}
	normalized := domain.NormalizeEmail(adminEmail)
	if normalized == "" {
		report.Noop = true
		// Probe connectivity so a broken database still fails loudly.
		var count int64
		if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
			return nil, err
		}
		return report, nil
	}

	var user domain.User
	if err := db.First(&user, "email = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report.Noop = true
			return report, nil
		}
		return nil, err
	}

	updates := map[string]any{}
	if !user.IsStaff {
		updates["is_staff"] = true
		report.PromotedStaff++
	}
	if !user.IsSuperuser {
		updates["is_superuser"] = true
	}
	if user.EmailVerifiedAt == nil {
		updates["email_verified_at"] = time.Now().UTC()
		report.VerifiedEmails++
	}
	if len(updates) == 0 {
		report.Noop = true
		return report, nil
	}

	if err := db.Model(&domain.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// VerifyLocalEmail marks an account's email verified without a token.
// Local development helper; never exposed over HTTP.
func VerifyLocalEmail(db *gorm.DB, email string) error {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return errors.New("email is required")
	}

	var user domain.User
	if err := db.First(&user, "email = ?", normalized).Error; err != nil {
		return err
	}
	if user.EmailVerifiedAt != nil {
		return nil
	}
	return db.Model(&domain.User{}).
		Where("id = ? AND email_verified_at IS NULL", user.ID).
		Update("email_verified_at", time.Now().UTC()).Error
}
