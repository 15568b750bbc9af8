package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenConsumed = errors.New("token already consumed")
	ErrTokenExpired  = errors.New("token expired")
)

// TokenRepository is the single-use token ledger. Rows are append-only:
// issuing never touches earlier tokens, and redemption is the only
// mutation a row ever sees.
type TokenRepository interface {
	Create(token *domain.SingleUseToken) error
	// Redeem atomically consumes the token matching value and purpose.
	// Exactly one of any number of concurrent redemptions succeeds; the
	// rest see ErrTokenConsumed. The returned token carries its owner.
	Redeem(value string, purpose domain.TokenPurpose, now time.Time) (*domain.SingleUseToken, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Create(token *domain.SingleUseToken) error {
	if err := r.db.Create(token).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "create", "success")
	return nil
}

func (r *GormTokenRepository) Redeem(value string, purpose domain.TokenPurpose, now time.Time) (*domain.SingleUseToken, error) {
	var token domain.SingleUseToken
	err := r.db.Preload("User").
		Where("token = ? AND purpose = ?", value, purpose).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordTokenRedemption(context.Background(), string(purpose), "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordTokenRedemption(context.Background(), string(purpose), "error")
		return nil, err
	}
	if token.IsConsumed() {
		observability.RecordTokenRedemption(context.Background(), string(purpose), "consumed")
		return nil, ErrTokenConsumed
	}
	if token.IsExpired(now) {
		observability.RecordTokenRedemption(context.Background(), string(purpose), "expired")
		return nil, ErrTokenExpired
	}

	// The guarded update is the actual consumption point: under
	// concurrent redemption only one caller flips the row.
	res := r.db.Model(&domain.SingleUseToken{}).
		Where("id = ? AND consumed_at IS NULL", token.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		observability.RecordTokenRedemption(context.Background(), string(purpose), "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordTokenRedemption(context.Background(), string(purpose), "consumed")
		return nil, ErrTokenConsumed
	}
	token.ConsumedAt = &now
	observability.RecordTokenRedemption(context.Background(), string(purpose), "success")
	return &token, nil
}
