package repository

import (
	"context"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	FindByReference(ctx context.Context, reference string) (*model.Transaction, error)
	ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Transaction, error)
	// Settle moves a pending row to its final status exactly once; a zero
	// RowsAffected means the row was missing or already settled.
	Settle(ctx context.Context, reference string, status model.TransactionStatus, at time.Time) (int64, error)
	// SumCompleted returns completed credit and debit totals for a user,
	// the reconciliation inputs for the wallet conservation check.
	SumCompleted(ctx context.Context, uid string) (credits, debits int64, err error)
	WithTx(tx *gorm.DB) TransactionRepository
	SetDB(db *gorm.DB)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepository) Settle(ctx context.Context, reference string, status model.TransactionStatus, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("reference = ? AND status = ?", reference, model.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *transactionRepository) SumCompleted(ctx context.Context, uid string) (int64, int64, error) {
	if r.db == nil {
		return 0, 0, ErrDBNotReady
	}
	type row struct {
		Direction model.TransactionDirection
		Total     int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("direction, COALESCE(SUM(amount), 0) AS total").
		Where("user_uid = ? AND status = ?", uid, model.TransactionStatusCompleted).
		Group("direction").
		Scan(&rows).Error; err != nil {
		return 0, 0, err
	}
	var credits, debits int64
	for _, rw := range rows {
		switch rw.Direction {
		case model.DirectionCredit:
			credits = rw.Total
		case model.DirectionDebit:
			debits = rw.Total
		}
	}
	return credits, debits, nil
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) SetDB(db *gorm.DB) {
	r.db = db
}
