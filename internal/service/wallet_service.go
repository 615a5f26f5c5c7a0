package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusmart/campusmart-backend/internal/event"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletService interface {
	Get(ctx context.Context, uid string) (*model.Wallet, error)
	Transactions(ctx context.Context, uid string, limit, offset int) ([]model.Transaction, error)
	// Deposit credits externally-settled funds. The gateway reference is
	// unique, so a replayed webhook cannot credit twice.
	Deposit(ctx context.Context, uid string, amount int64, reference string) (*model.Wallet, error)
	// Withdraw moves funds from balance to pending until the external
	// payout settles; SettleWithdrawal finishes or unwinds the hold.
	Withdraw(ctx context.Context, uid string, amount int64) (*model.Transaction, error)
	SettleWithdrawal(ctx context.Context, reference string, succeeded bool) error
	// Reconcile verifies balance + pending against the completed
	// transaction history and freezes the wallet on any mismatch.
	Reconcile(ctx context.Context, uid string) error
}

type walletService struct {
	txm        repository.TxManager
	walletRepo repository.WalletRepository
	txnRepo    repository.TransactionRepository
	publisher  *event.Publisher
}

func NewWalletService(
	txm repository.TxManager,
	walletRepo repository.WalletRepository,
	txnRepo repository.TransactionRepository,
	publisher *event.Publisher,
) WalletService {
	return &walletService{txm: txm, walletRepo: walletRepo, txnRepo: txnRepo, publisher: publisher}
}

func (s *walletService) Get(ctx context.Context, uid string) (*model.Wallet, error) {
	return s.walletRepo.FindOrCreate(ctx, uid)
}

func (s *walletService) Transactions(ctx context.Context, uid string, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.txnRepo.ListByUser(ctx, uid, limit, offset)
}

func (s *walletService) Deposit(ctx context.Context, uid string, amount int64, reference string) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("payment reference is required")
	}
	var wallet *model.Wallet
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)
		txns := s.txnRepo.WithTx(tx)

		if _, err := txns.FindByReference(ctx, reference); err == nil {
			return ErrDuplicateReference
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		w, err := wallets.FindForUpdate(ctx, uid)
		if err != nil {
			return err
		}
		if w.Frozen {
			return ErrWalletFrozen
		}
		if err := wallets.AddBalance(ctx, uid, amount); err != nil {
			return err
		}
		now := time.Now()
		if err := txns.Create(ctx, &model.Transaction{
			Reference:   reference,
			UserUID:     uid,
			Type:        model.TransactionTypeDeposit,
			Direction:   model.DirectionCredit,
			Amount:      amount,
			Status:      model.TransactionStatusCompleted,
			Description: "wallet deposit",
			CompletedAt: &now,
		}); err != nil {
			return err
		}
		w.Balance += amount
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) Withdraw(ctx context.Context, uid string, amount int64) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	var created *model.Transaction
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)

		w, err := wallets.FindForUpdate(ctx, uid)
		if err != nil {
			return err
		}
		if w.Frozen {
			return ErrWalletFrozen
		}
		if w.Balance < amount {
			return ErrInsufficientFunds
		}
		if err := wallets.Hold(ctx, uid, amount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientFunds
			}
			return err
		}
		t := &model.Transaction{
			Reference:   uuid.NewString(),
			UserUID:     uid,
			Type:        model.TransactionTypeWithdrawal,
			Direction:   model.DirectionDebit,
			Amount:      amount,
			Status:      model.TransactionStatusPending,
			Description: "withdrawal awaiting payout",
		}
		if err := s.txnRepo.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *walletService) SettleWithdrawal(ctx context.Context, reference string, succeeded bool) error {
	var settled *model.Transaction
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)
		txns := s.txnRepo.WithTx(tx)

		t, err := txns.FindByReference(ctx, reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if t.Type != model.TransactionTypeWithdrawal {
			return ErrNotFound
		}
		if t.Status != model.TransactionStatusPending {
			return ErrAlreadySettled
		}
		if _, err := wallets.FindForUpdate(ctx, t.UserUID); err != nil {
			return err
		}
		now := time.Now()
		final := model.TransactionStatusCompleted
		if succeeded {
			if err := wallets.ClearPending(ctx, t.UserUID, t.Amount, now); err != nil {
				return err
			}
		} else {
			final = model.TransactionStatusFailed
			if err := wallets.ReturnPending(ctx, t.UserUID, t.Amount); err != nil {
				return err
			}
		}
		rows, err := txns.Settle(ctx, reference, final, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadySettled
		}
		t.Status = final
		settled = t
		return nil
	})
	if err != nil {
		return err
	}
	outcome := "completed"
	if settled.Status == model.TransactionStatusFailed {
		outcome = "failed"
	}
	s.publisher.Publish(ctx, event.TypeWithdrawalSettled, settled.Reference, event.WithdrawalSettledPayload{
		Reference: settled.Reference,
		UserUID:   settled.UserUID,
		Amount:    settled.Amount,
		Outcome:   outcome,
	})
	return nil
}

func (s *walletService) Reconcile(ctx context.Context, uid string) error {
	var mismatch *ReconciliationError
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)
		txns := s.txnRepo.WithTx(tx)

		w, err := wallets.FindForUpdate(ctx, uid)
		if err != nil {
			return err
		}
		credits, debits, err := txns.SumCompleted(ctx, uid)
		if err != nil {
			return err
		}
		expected := credits - debits
		actual := w.Balance + w.PendingBalance
		if expected != actual {
			mismatch = &ReconciliationError{UID: uid, Expected: expected, Actual: actual}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if mismatch == nil {
		return nil
	}
	// The freeze must outlive the error the caller sees. Returning the
	// mismatch from inside the unit would roll the freeze back, so it
	// commits in its own transaction first.
	if err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		return s.walletRepo.WithTx(tx).SetFrozen(ctx, uid, true)
	}); err != nil {
		return fmt.Errorf("freeze wallet %s: %w", uid, err)
	}
	return mismatch
}
