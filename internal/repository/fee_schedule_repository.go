package repository

import (
	"context"
	"errors"

	"github.com/campusmart/campusmart-backend/internal/model"
	"gorm.io/gorm"
)

type FeeScheduleRepository interface {
	// Active returns the schedule currently in effect, falling back to
	// the built-in default when none has been configured yet.
	Active(ctx context.Context) (*model.FeeSchedule, error)
	Save(ctx context.Context, s *model.FeeSchedule) error
	WithTx(tx *gorm.DB) FeeScheduleRepository
	SetDB(db *gorm.DB)
}

type feeScheduleRepository struct {
	db *gorm.DB
}

func NewFeeScheduleRepository(db *gorm.DB) FeeScheduleRepository {
	return &feeScheduleRepository{db: db}
}

func (r *feeScheduleRepository) Active(ctx context.Context) (*model.FeeSchedule, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.FeeSchedule
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id DESC").
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultFeeSchedule(), nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *feeScheduleRepository) Save(ctx context.Context, s *model.FeeSchedule) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *feeScheduleRepository) WithTx(tx *gorm.DB) FeeScheduleRepository {
	if tx == nil {
		return r
	}
	return &feeScheduleRepository{db: tx}
}

func (r *feeScheduleRepository) SetDB(db *gorm.DB) {
	r.db = db
}
