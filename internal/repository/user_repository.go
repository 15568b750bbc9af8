package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserListQuery struct {
	PageRequest
	SortBy    string
	SortOrder string
	Email     string
	Username  string
	Verified  *bool
}

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	Update(user *domain.User) error
	UpdatePassword(id uuid.UUID, passwordHash string, changedAt time.Time) error
	MarkEmailVerified(id uuid.UUID, verifiedAt time.Time) error
	SetAvatarURL(id uuid.UUID, avatarURL string) error
	ListPaged(q UserListQuery) (PageResult[domain.User], error)
	Delete(id uuid.UUID) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	user.Username = strings.TrimSpace(user.Username)

	// Pre-check for friendly errors; the unique indexes close the race.
	var count int64
	if err := r.db.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	if count > 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
		return ErrEmailTaken
	}
	if err := r.db.Model(&domain.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	if count > 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
		return ErrUsernameTaken
	}

	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
			return uniqueViolationError(err)
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	return r.findOne("find_by_id", "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findOne("find_by_email", "email = ?", domain.NormalizeEmail(email))
}

func (r *GormUserRepository) FindByUsername(username string) (*domain.User, error) {
	return r.findOne("find_by_username", "username = ?", strings.TrimSpace(username))
}

func (r *GormUserRepository) findOne(op string, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", op, "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", op, "success")
	return &user, nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	if err := r.db.Save(user).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}

func (r *GormUserRepository) UpdatePassword(id uuid.UUID, passwordHash string, changedAt time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":           passwordHash,
		"last_password_change_at": changedAt,
	})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "success")
	return nil
}

// MarkEmailVerified sets the verification timestamp once. Calling it
// again is a no-op, not an error.
func (r *GormUserRepository) MarkEmailVerified(id uuid.UUID, verifiedAt time.Time) error {
	res := r.db.Model(&domain.User{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Update("email_verified_at", verifiedAt)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "mark_verified", "error")
		return res.Error
	}
	outcome := "success"
	if res.RowsAffected == 0 {
		outcome = "noop"
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "mark_verified", outcome)
	return nil
}

func (r *GormUserRepository) SetAvatarURL(id uuid.UUID, avatarURL string) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Update("avatar_url", avatarURL)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "set_avatar", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "set_avatar", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "set_avatar", "success")
	return nil
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (PageResult[domain.User], error) {
	page := normalizePageRequest(q.PageRequest)

	tx := r.db.Model(&domain.User{})
	if q.Email != "" {
		tx = tx.Where("email LIKE ?", "%"+domain.NormalizeEmail(q.Email)+"%")
	}
	if q.Username != "" {
		tx = tx.Where("username LIKE ?", "%"+strings.TrimSpace(q.Username)+"%")
	}
	if q.Verified != nil {
		if *q.Verified {
			tx = tx.Where("email_verified_at IS NOT NULL")
		} else {
			tx = tx.Where("email_verified_at IS NULL")
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}

	var items []domain.User
	err := tx.Order(userSortClause(q.SortBy, q.SortOrder)).
		Limit(page.PageSize).Offset(page.offset()).
		Find(&items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "success")
	return PageResult[domain.User]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

// Delete removes the user and everything the user alone owns. Tokens
// and memberships go with the user; owned orgs, created teams, and
// sent invites survive with their references cleared.
func (r *GormUserRepository) Delete(id uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.SingleUseToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.TeamMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.TeamMembership{}).Where("invited_by_id = ?", id).
			Update("invited_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Organization{}).Where("owner_id = ?", id).
			Update("owner_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Team{}).Where("created_by_id = ?", id).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrUserNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "delete", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "delete", "success")
	return nil
}

func userSortClause(sortBy, sortOrder string) string {
	col := "created_at"
	switch sortBy {
	case "email", "username", "created_at", "updated_at":
		col = sortBy
	}
	order := "asc"
	if strings.EqualFold(sortOrder, "desc") {
		order = "desc"
	}
	return col + " " + order
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// uniqueViolationError maps a duplicate-key insert failure to the index
// that fired. Both sqlite ("users.username") and postgres
// ("idx_users_username") name the column in the message.
func uniqueViolationError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "username") {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}
