package repository

import (
	"context"
	"errors"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository mutates balances exclusively through guarded
// conditional UPDATEs: a zero RowsAffected means the guard (sufficient
// balance, not frozen) failed and surfaces as gorm.ErrRecordNotFound.
type WalletRepository interface {
	FindOrCreate(ctx context.Context, uid string) (*model.Wallet, error)
	// FindForUpdate locks the wallet row for the enclosing transaction.
	FindForUpdate(ctx context.Context, uid string) (*model.Wallet, error)
	Debit(ctx context.Context, uid string, amount int64) error
	Credit(ctx context.Context, uid string, amount int64) error
	Refund(ctx context.Context, uid string, amount int64) error
	AddBalance(ctx context.Context, uid string, amount int64) error
	Hold(ctx context.Context, uid string, amount int64) error
	ClearPending(ctx context.Context, uid string, amount int64, at time.Time) error
	ReturnPending(ctx context.Context, uid string, amount int64) error
	SetFrozen(ctx context.Context, uid string, frozen bool) error
	WithTx(tx *gorm.DB) WalletRepository
	SetDB(db *gorm.DB)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) FindOrCreate(ctx context.Context, uid string) (*model.Wallet, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var w model.Wallet
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		FirstOrCreate(&w, &model.Wallet{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *walletRepository) FindForUpdate(ctx context.Context, uid string) (*model.Wallet, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var w model.Wallet
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uid = ?", uid).
		FirstOrCreate(&w, &model.Wallet{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Debit spends from balance; fails unless balance covers the amount and
// the wallet is not frozen.
func (r *walletRepository) Debit(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND balance >= ? AND frozen = ?", uid, amount, false).
		Updates(map[string]interface{}{
			"balance":     gorm.Expr("balance - ?", amount),
			"total_spent": gorm.Expr("total_spent + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Credit pays out earnings (escrow release). A frozen wallet refuses
// the credit like every other balance mutation; the payee's row is
// created on first earnings.
func (r *walletRepository) Credit(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND frozen = ?", uid, false).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"total_earned": gorm.Expr("total_earned + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var w model.Wallet
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&w).Error
	if err == nil {
		// The row exists, so the guard is what failed: wallet is frozen.
		return gorm.ErrRecordNotFound
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(&model.Wallet{UID: uid, Balance: amount, TotalEarned: amount}).Error
}

// Refund returns escrowed funds to the buyer and unwinds total_spent.
func (r *walletRepository) Refund(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND frozen = ?", uid, false).
		Updates(map[string]interface{}{
			"balance":     gorm.Expr("balance + ?", amount),
			"total_spent": gorm.Expr("total_spent - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddBalance credits a deposit; deposits do not count as earnings.
func (r *walletRepository) AddBalance(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
		}),
	}).Create(&model.Wallet{UID: uid, Balance: amount}).Error
}

// Hold moves funds from balance to pending_balance for a withdrawal in
// flight; the external payout outcome decides where they land.
func (r *walletRepository) Hold(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND balance >= ? AND frozen = ?", uid, amount, false).
		Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance - ?", amount),
			"pending_balance": gorm.Expr("pending_balance + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *walletRepository) ClearPending(ctx context.Context, uid string, amount int64, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND pending_balance >= ?", uid, amount).
		Updates(map[string]interface{}{
			"pending_balance":    gorm.Expr("pending_balance - ?", amount),
			"last_withdrawal_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *walletRepository) ReturnPending(ctx context.Context, uid string, amount int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND pending_balance >= ?", uid, amount).
		Updates(map[string]interface{}{
			"pending_balance": gorm.Expr("pending_balance - ?", amount),
			"balance":         gorm.Expr("balance + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *walletRepository) SetFrozen(ctx context.Context, uid string, frozen bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ?", uid).
		Update("frozen", frozen).Error
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	if tx == nil {
		return r
	}
	return &walletRepository{db: tx}
}

func (r *walletRepository) SetDB(db *gorm.DB) {
	r.db = db
}
