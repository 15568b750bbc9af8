package database

import (
	"go-tenant-auth-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.SingleUseToken{},
		&domain.Organization{},
		&domain.Team{},
		&domain.Role{},
		&domain.TeamMembership{},
	)
}
