package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aquametrics/aquametrics/models"
)

// GormStore persists records in MySQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized gorm DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("RewardHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) Create(ctx context.Context, rec *models.User) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *GormStore) ConditionalPut(ctx context.Context, expectedRevision uint64, rec *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec.Revision = expectedRevision + 1
		res := tx.Model(&models.User{}).
			Where("email = ? AND revision = ?", rec.Email, expectedRevision).
			Select("name", "password_hash", "is_verified", "revision", "points",
				"streak_count", "last_login", "profile_completed_reward_given",
				"date_of_birth", "gender", "mobile", "address",
				"otp", "otp_expiration", "consumed_water_footprint", "updated_at").
			Updates(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing record from a lost race.
			var n int64
			if err := tx.Model(&models.User{}).Where("email = ?", rec.Email).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		for i := range rec.RewardHistory {
			if rec.RewardHistory[i].ID != 0 {
				continue
			}
			rec.RewardHistory[i].UserID = rec.ID
			if err := tx.Create(&rec.RewardHistory[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) SetMirrorStatus(ctx context.Context, email string, st MirrorStatus) error {
	updates := map[string]interface{}{
		"pending_mirror":    st.Pending,
		"last_mirror_error": st.LastError,
	}
	if st.LastMirroredAt != nil {
		updates["last_mirrored_at"] = st.LastMirroredAt
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RewardEntry{}).Error; err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(&user).Error
	})
}

func (s *GormStore) PendingMirror(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	q := s.db.WithContext(ctx).Where("pending_mirror = ?", true).Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) Top(ctx context.Context, n int) ([]models.User, error) {
	var users []models.User
	if n <= 0 {
		n = 10
	}
	if err := s.db.WithContext(ctx).Order("points DESC").Limit(n).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
