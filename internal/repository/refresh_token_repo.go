package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository provides DB access for refresh tokens. Only keyed hashes are stored.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

type refreshTokenModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	TokenHash string    `gorm:"column:token_hash;size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false"`
}

func (refreshTokenModel) TableName() string { return "refresh_tokens" }

func toDomainRefreshToken(m refreshTokenModel) *domain.RefreshToken {
	return &domain.RefreshToken{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		Revoked:   m.Revoked,
	}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	m := refreshTokenModel{
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		CreatedAt: t.CreatedAt.UTC(),
		ExpiresAt: t.ExpiresAt.UTC(),
		Revoked:   t.Revoked,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	t.ID = m.ID
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var m refreshTokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&m).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainRefreshToken(m), nil
}

// RevokeActiveForUser revokes every token of userID that is still usable at now.
func (r *RefreshTokenRepository) RevokeActiveForUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&refreshTokenModel{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now.UTC()).
		Update("revoked", true)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeByID flips revoked only if the token is not revoked yet. The returned count is 0 when
// another caller got there first.
func (r *RefreshTokenRepository) RevokeByID(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&refreshTokenModel{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeActiveByID revokes id only while it is unrevoked and unexpired at now. A count of 0
// means the token was already consumed or has expired.
func (r *RefreshTokenRepository) RevokeActiveByID(ctx context.Context, id int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&refreshTokenModel{}).
		Where("id = ? AND revoked = ? AND expires_at > ?", id, false, now.UTC()).
		Update("revoked", true)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&refreshTokenModel{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteStale removes tokens expired at now, and revoked tokens created before revokedBefore.
func (r *RefreshTokenRepository) DeleteStale(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND created_at < ?)", now.UTC(), true, revokedBefore.UTC()).
		Delete(&refreshTokenModel{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RefreshTokenRepository) CountActiveForUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&refreshTokenModel{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now.UTC()).
		Count(&cnt).Error
	if err != nil {
		return 0, classify(err)
	}
	return cnt, nil
}
