package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

// ResetTokenRepository persists single-use password reset tokens.
type ResetTokenRepository interface {
	WithTx(tx *gorm.DB) ResetTokenRepository
	Create(ctx context.Context, token *models.PasswordResetToken) error
	FindActive(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
}

type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository builds the repository over the provided DB.
func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	if db == nil {
		return nil
	}
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) WithTx(tx *gorm.DB) ResetTokenRepository {
	if tx == nil {
		return r
	}
	return &resetTokenRepository{db: tx}
}

func (r *resetTokenRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reset token")
	}
	return nil
}

func (r *resetTokenRepository) FindActive(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find reset token")
	}
	return &record, nil
}

func (r *resetTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetToken{}).
		Where("id = ?", id).
		Update("used", true).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark reset token used")
	}
	return nil
}
