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

// GigService mirrors the order escrow flow for gigs: accepting a bid
// plays the role of checkout, completing the gig plays the role of
// delivery confirmation, with the same idempotency and irreversibility
// rules.
type GigService interface {
	Create(ctx context.Context, posterUID, campus, title, description string, budget int64) (*model.Gig, error)
	Get(ctx context.Context, id uint64) (*model.Gig, []model.Bid, error)
	PlaceBid(ctx context.Context, gigID uint64, freelancerUID string, amount int64, message string) (*model.Bid, error)
	// AcceptBid escrows the bid amount plus platform fee from the poster.
	AcceptBid(ctx context.Context, gigID, bidID uint64, posterUID string) (*model.Gig, error)
	// Complete releases the escrowed amount to the freelancer; the fee
	// is retained. Idempotent once released.
	Complete(ctx context.Context, gigID uint64, posterUID string) (*model.Gig, error)
	Cancel(ctx context.Context, gigID uint64, posterUID, reason string) (*model.Gig, error)
}

type gigService struct {
	txm        repository.TxManager
	gigRepo    repository.GigRepository
	walletRepo repository.WalletRepository
	txnRepo    repository.TransactionRepository
	feeRepo    repository.FeeScheduleRepository
	publisher  *event.Publisher
}

func NewGigService(
	txm repository.TxManager,
	gigRepo repository.GigRepository,
	walletRepo repository.WalletRepository,
	txnRepo repository.TransactionRepository,
	feeRepo repository.FeeScheduleRepository,
	publisher *event.Publisher,
) GigService {
	return &gigService{
		txm:        txm,
		gigRepo:    gigRepo,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		feeRepo:    feeRepo,
		publisher:  publisher,
	}
}

func (s *gigService) Create(ctx context.Context, posterUID, campus, title, description string, budget int64) (*model.Gig, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 120 {
		return nil, errors.New("invalid title")
	}
	if budget <= 0 {
		return nil, errors.New("budget must be positive")
	}
	g := &model.Gig{
		PosterUID:     posterUID,
		Campus:        strings.TrimSpace(campus),
		Title:         title,
		Description:   strings.TrimSpace(description),
		Budget:        budget,
		Status:        model.GigStatusOpen,
		PaymentStatus: model.GigPaymentPending,
	}
	if err := s.gigRepo.CreateGig(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *gigService) Get(ctx context.Context, id uint64) (*model.Gig, []model.Bid, error) {
	g, err := s.gigRepo.FindGigByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	bids, err := s.gigRepo.ListBidsByGig(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return g, bids, nil
}

func (s *gigService) PlaceBid(ctx context.Context, gigID uint64, freelancerUID string, amount int64, message string) (*model.Bid, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	g, err := s.gigRepo.FindGigByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if g.Status != model.GigStatusOpen {
		return nil, ErrOutOfOrderTransition
	}
	if g.PosterUID == freelancerUID {
		return nil, errors.New("cannot bid on your own gig")
	}
	b := &model.Bid{
		GigID:         gigID,
		FreelancerUID: freelancerUID,
		Amount:        amount,
		Message:       strings.TrimSpace(message),
		Status:        model.BidStatusPending,
	}
	if err := s.gigRepo.CreateBid(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *gigService) AcceptBid(ctx context.Context, gigID, bidID uint64, posterUID string) (*model.Gig, error) {
	var updated *model.Gig
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		gigs := s.gigRepo.WithTx(tx)
		wallets := s.walletRepo.WithTx(tx)

		g, err := gigs.FindGigForUpdate(ctx, gigID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if g.PosterUID != posterUID {
			return ErrForbidden
		}
		if g.Status != model.GigStatusOpen || g.PaymentStatus != model.GigPaymentPending {
			return ErrOutOfOrderTransition
		}
		bid, err := gigs.FindBidByID(ctx, bidID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if bid.GigID != gigID || bid.Status != model.BidStatusPending {
			return ErrOutOfOrderTransition
		}
		sched, err := s.feeRepo.WithTx(tx).Active(ctx)
		if err != nil {
			return err
		}
		fee := CalculateFee(bid.Amount, g.Campus, sched)
		total := bid.Amount + fee

		w, err := wallets.FindForUpdate(ctx, posterUID)
		if err != nil {
			return err
		}
		if w.Frozen {
			return ErrWalletFrozen
		}
		if w.Balance < total {
			return ErrInsufficientFunds
		}
		if err := wallets.Debit(ctx, posterUID, total); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientFunds
			}
			return err
		}
		now := time.Now()
		if err := s.txnRepo.WithTx(tx).Create(ctx, &model.Transaction{
			Reference:   uuid.NewString(),
			UserUID:     posterUID,
			Type:        model.TransactionTypeEscrow,
			Direction:   model.DirectionDebit,
			Amount:      total,
			Fee:         fee,
			Status:      model.TransactionStatusCompleted,
			GigID:       &g.ID,
			Description: fmt.Sprintf("escrow hold for gig %d bid %d", g.ID, bid.ID),
			CompletedAt: &now,
		}); err != nil {
			return err
		}

		bid.Status = model.BidStatusAccepted
		if err := gigs.UpdateBid(ctx, bid); err != nil {
			return err
		}
		if err := gigs.RejectOtherBids(ctx, gigID, bid.ID); err != nil {
			return err
		}
		g.Status = model.GigStatusAssigned
		g.PaymentStatus = model.GigPaymentInEscrow
		g.AcceptedBidID = &bid.ID
		g.EscrowAmount = bid.Amount
		g.PlatformFee = fee
		if err := gigs.UpdateGig(ctx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, event.TypeGigEscrowed, fmt.Sprintf("gig-%d", updated.ID), event.GigSettlementPayload{
		GigID:         updated.ID,
		PosterUID:     updated.PosterUID,
		Amount:        updated.EscrowAmount,
		PaymentStatus: string(updated.PaymentStatus),
	})
	return updated, nil
}

func (s *gigService) Complete(ctx context.Context, gigID uint64, posterUID string) (*model.Gig, error) {
	var (
		updated       *model.Gig
		freelancerUID string
		released      bool
	)
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		gigs := s.gigRepo.WithTx(tx)

		g, err := gigs.FindGigForUpdate(ctx, gigID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if g.PosterUID != posterUID {
			return ErrForbidden
		}
		// Idempotent once released, exactly like confirm-delivery.
		if g.PaymentStatus == model.GigPaymentReleased {
			updated = g
			return nil
		}
		if g.PaymentStatus != model.GigPaymentInEscrow || g.AcceptedBidID == nil {
			return ErrOutOfOrderTransition
		}
		bid, err := gigs.FindBidByID(ctx, *g.AcceptedBidID)
		if err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).Credit(ctx, bid.FreelancerUID, g.EscrowAmount); err != nil {
			// The credit guard only fails when the payee wallet is frozen.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletFrozen
			}
			return err
		}
		now := time.Now()
		if err := s.txnRepo.WithTx(tx).Create(ctx, &model.Transaction{
			Reference:   uuid.NewString(),
			UserUID:     bid.FreelancerUID,
			Type:        model.TransactionTypeRelease,
			Direction:   model.DirectionCredit,
			Amount:      g.EscrowAmount,
			Fee:         g.PlatformFee,
			Status:      model.TransactionStatusCompleted,
			GigID:       &g.ID,
			Description: fmt.Sprintf("escrow release for gig %d", g.ID),
			CompletedAt: &now,
		}); err != nil {
			return err
		}
		g.Status = model.GigStatusCompleted
		g.PaymentStatus = model.GigPaymentReleased
		g.EscrowReleasedAt = &now
		if err := gigs.UpdateGig(ctx, g); err != nil {
			return err
		}
		updated = g
		freelancerUID = bid.FreelancerUID
		released = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if released {
		s.publisher.Publish(ctx, event.TypeGigReleased, fmt.Sprintf("gig-%d", updated.ID), event.GigSettlementPayload{
			GigID:         updated.ID,
			PosterUID:     updated.PosterUID,
			FreelancerUID: freelancerUID,
			Amount:        updated.EscrowAmount,
			PaymentStatus: string(updated.PaymentStatus),
		})
	}
	return updated, nil
}

func (s *gigService) Cancel(ctx context.Context, gigID uint64, posterUID, reason string) (*model.Gig, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New("cancellation reason is required")
	}
	var updated *model.Gig
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		gigs := s.gigRepo.WithTx(tx)

		g, err := gigs.FindGigForUpdate(ctx, gigID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if g.PosterUID != posterUID {
			return ErrForbidden
		}
		if g.PaymentStatus == model.GigPaymentReleased {
			return ErrAlreadySettled
		}
		if g.Status == model.GigStatusCancelled {
			return ErrAlreadySettled
		}
		if g.PaymentStatus == model.GigPaymentInEscrow {
			refund := g.EscrowAmount + g.PlatformFee
			if err := s.walletRepo.WithTx(tx).Refund(ctx, posterUID, refund); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWalletFrozen
				}
				return err
			}
			now := time.Now()
			if err := s.txnRepo.WithTx(tx).Create(ctx, &model.Transaction{
				Reference:   uuid.NewString(),
				UserUID:     posterUID,
				Type:        model.TransactionTypeRefund,
				Direction:   model.DirectionCredit,
				Amount:      refund,
				Status:      model.TransactionStatusCompleted,
				GigID:       &g.ID,
				Description: fmt.Sprintf("refund for cancelled gig %d: %s", g.ID, reason),
				CompletedAt: &now,
			}); err != nil {
				return err
			}
			g.PaymentStatus = model.GigPaymentRefunded
		}
		g.Status = model.GigStatusCancelled
		g.CancelReason = reason
		if err := gigs.UpdateGig(ctx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.PaymentStatus == model.GigPaymentRefunded {
		s.publisher.Publish(ctx, event.TypeGigRefunded, fmt.Sprintf("gig-%d", updated.ID), event.GigSettlementPayload{
			GigID:         updated.ID,
			PosterUID:     updated.PosterUID,
			Amount:        updated.EscrowAmount,
			PaymentStatus: string(updated.PaymentStatus),
		})
	}
	return updated, nil
}
