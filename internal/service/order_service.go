package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusmart/campusmart-backend/internal/cache"
	"github.com/campusmart/campusmart-backend/internal/event"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderService owns every mutation of Order.Status, DeliveryStatus and
// EscrowReleased. Nothing else writes those fields.
type OrderService interface {
	Get(ctx context.Context, id uint64, uid string) (*model.Order, error)
	Status(ctx context.Context, id uint64, uid string) (*cache.StatusEntry, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error)
	// UpdateDeliveryStatus advances the seller-driven delivery chain by
	// exactly one step; jumps and backward moves are rejected.
	UpdateDeliveryStatus(ctx context.Context, id uint64, sellerUID string, to model.DeliveryStatus) (*model.Order, error)
	// ConfirmDelivery is the buyer acknowledging receipt. The first call
	// from the delivered state releases escrow to the seller; repeat
	// calls are idempotent no-ops.
	ConfirmDelivery(ctx context.Context, id uint64, buyerUID string) (*model.Order, error)
	Cancel(ctx context.Context, id uint64, actorUID, reason string) (*model.Order, error)
	Dispute(ctx context.Context, id uint64, actorUID, reason string) (*model.Order, error)
	// AdminRelease settles escrow without buyer confirmation; the
	// override is recorded in the transaction log.
	AdminRelease(ctx context.Context, id uint64, adminUID string) (*model.Order, error)
}

// StatusCache fronts the status polling path. *cache.OrderStatusCache
// implements it; a nil cache disables caching entirely.
type StatusCache interface {
	Get(ctx context.Context, orderID uint64) (*cache.StatusEntry, bool)
	Set(ctx context.Context, orderID uint64, e cache.StatusEntry)
	Invalidate(ctx context.Context, orderID uint64)
}

type orderService struct {
	txm        repository.TxManager
	orderRepo  repository.OrderRepository
	walletRepo repository.WalletRepository
	txnRepo    repository.TransactionRepository
	statuses   StatusCache
	publisher  *event.Publisher
}

func NewOrderService(
	txm repository.TxManager,
	orderRepo repository.OrderRepository,
	walletRepo repository.WalletRepository,
	txnRepo repository.TransactionRepository,
	statuses StatusCache,
	publisher *event.Publisher,
) OrderService {
	return &orderService{
		txm:        txm,
		orderRepo:  orderRepo,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		statuses:   statuses,
		publisher:  publisher,
	}
}

func (s *orderService) Get(ctx context.Context, id uint64, uid string) (*model.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if uid != "" && uid != o.BuyerUID && uid != o.SellerUID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *orderService) Status(ctx context.Context, id uint64, uid string) (*cache.StatusEntry, error) {
	if s.statuses != nil {
		if e, ok := s.statuses.Get(ctx, id); ok {
			// A cached entry skips the store read, not the party check.
			if uid != "" && uid != e.BuyerUID && uid != e.SellerUID {
				return nil, ErrForbidden
			}
			return e, nil
		}
	}
	o, err := s.Get(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	e := cache.StatusEntry{
		Status:         string(o.Status),
		DeliveryStatus: string(o.DeliveryStatus),
		BuyerUID:       o.BuyerUID,
		SellerUID:      o.SellerUID,
		UpdatedAt:      o.UpdatedAt,
	}
	if s.statuses != nil {
		s.statuses.Set(ctx, id, e)
	}
	return &e, nil
}

func (s *orderService) invalidateStatus(ctx context.Context, id uint64) {
	if s.statuses != nil {
		s.statuses.Invalidate(ctx, id)
	}
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerUID)
}

func (s *orderService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error) {
	return s.orderRepo.ListBySeller(ctx, sellerUID)
}

func (s *orderService) UpdateDeliveryStatus(ctx context.Context, id uint64, sellerUID string, to model.DeliveryStatus) (*model.Order, error) {
	var updated *model.Order
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if o.SellerUID != sellerUID {
			return ErrForbidden
		}
		if o.Status.Terminal() {
			return ErrOutOfOrderTransition
		}
		// confirmed_by_buyer is the buyer's move, never the seller's.
		if to == model.DeliveryStatusConfirmedByBuyer || !model.CanAdvanceDelivery(o.DeliveryStatus, to) {
			return ErrOutOfOrderTransition
		}
		o.DeliveryStatus = to
		if to == model.DeliveryStatusDelivered {
			now := time.Now()
			o.DeliveryConfirmedAt = &now
		}
		if next := model.OrderStatusForDelivery(to); next != o.Status && model.CanTransitionOrderStatus(o.Status, next) {
			o.Status = next
		}
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStatus(ctx, id)
	s.publisher.Publish(ctx, event.TypeDeliveryStatusChanged, updated.OrderNumber, event.DeliveryStatusChangedPayload{
		OrderID:        updated.ID,
		OrderNumber:    updated.OrderNumber,
		DeliveryStatus: string(updated.DeliveryStatus),
	})
	return updated, nil
}

func (s *orderService) ConfirmDelivery(ctx context.Context, id uint64, buyerUID string) (*model.Order, error) {
	var (
		updated  *model.Order
		released bool
	)
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if o.BuyerUID != buyerUID {
			return ErrForbidden
		}
		// Idempotent: a released order is already settled; return it
		// unchanged rather than crediting the seller twice.
		if o.EscrowReleased {
			updated = o
			return nil
		}
		if o.DeliveryStatus != model.DeliveryStatusDelivered {
			return ErrOutOfOrderTransition
		}
		now := time.Now()
		o.DeliveryStatus = model.DeliveryStatusConfirmedByBuyer
		o.BuyerConfirmedAt = &now
		if err := s.release(ctx, tx, o, now, fmt.Sprintf("escrow release for order %s", o.OrderNumber)); err != nil {
			return err
		}
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		released = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if released {
		s.invalidateStatus(ctx, id)
		s.publisher.Publish(ctx, event.TypeEscrowReleased, updated.OrderNumber, event.EscrowReleasedPayload{
			OrderID:     updated.ID,
			OrderNumber: updated.OrderNumber,
			SellerUID:   updated.SellerUID,
			Amount:      updated.Subtotal,
			PlatformFee: updated.PlatformFee,
		})
	}
	return updated, nil
}

// release credits the seller the subtotal (the platform fee is
// retained) and records the release transaction. Caller persists the
// order inside the same database transaction.
func (s *orderService) release(ctx context.Context, tx *gorm.DB, o *model.Order, now time.Time, desc string) error {
	if err := s.walletRepo.WithTx(tx).Credit(ctx, o.SellerUID, o.Subtotal); err != nil {
		// The credit guard only fails when the payee wallet is frozen.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletFrozen
		}
		return err
	}
	o.EscrowReleased = true
	o.EscrowReleasedAt = &now
	o.Status = model.OrderStatusCompleted
	return s.txnRepo.WithTx(tx).Create(ctx, &model.Transaction{
		Reference:   uuid.NewString(),
		UserUID:     o.SellerUID,
		Type:        model.TransactionTypeRelease,
		Direction:   model.DirectionCredit,
		Amount:      o.Subtotal,
		Fee:         o.PlatformFee,
		Status:      model.TransactionStatusCompleted,
		OrderID:     &o.ID,
		Description: desc,
		CompletedAt: &now,
	})
}

func (s *orderService) Cancel(ctx context.Context, id uint64, actorUID, reason string) (*model.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New("cancellation reason is required")
	}
	var updated *model.Order
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if actorUID != o.BuyerUID && actorUID != o.SellerUID {
			return ErrForbidden
		}
		// Settled funds cannot be clawed back through cancellation.
		if o.EscrowReleased || o.Status.Terminal() {
			return ErrAlreadySettled
		}
		now := time.Now()
		if err := s.walletRepo.WithTx(tx).Refund(ctx, o.BuyerUID, o.TotalAmount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletFrozen
			}
			return err
		}
		if err := s.txnRepo.WithTx(tx).Create(ctx, &model.Transaction{
			Reference:   uuid.NewString(),
			UserUID:     o.BuyerUID,
			Type:        model.TransactionTypeRefund,
			Direction:   model.DirectionCredit,
			Amount:      o.TotalAmount,
			Fee:         0,
			Status:      model.TransactionStatusCompleted,
			OrderID:     &o.ID,
			Description: fmt.Sprintf("refund for cancelled order %s: %s", o.OrderNumber, reason),
			CompletedAt: &now,
		}); err != nil {
			return err
		}
		o.Status = model.OrderStatusCancelled
		o.CancelReason = reason
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStatus(ctx, id)
	s.publisher.Publish(ctx, event.TypeOrderCancelled, updated.OrderNumber, event.OrderCancelledPayload{
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		BuyerUID:    updated.BuyerUID,
		Refunded:    updated.TotalAmount,
		Reason:      reason,
	})
	return updated, nil
}

func (s *orderService) Dispute(ctx context.Context, id uint64, actorUID, reason string) (*model.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New("dispute reason is required")
	}
	var updated *model.Order
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if actorUID != o.BuyerUID && actorUID != o.SellerUID {
			return ErrForbidden
		}
		if !model.CanTransitionOrderStatus(o.Status, model.OrderStatusDisputed) {
			return ErrOutOfOrderTransition
		}
		o.Status = model.OrderStatusDisputed
		o.Notes = strings.TrimSpace(o.Notes + "\ndispute: " + reason)
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStatus(ctx, id)
	s.publisher.Publish(ctx, event.TypeOrderDisputed, updated.OrderNumber, event.DeliveryStatusChangedPayload{
		OrderID:        updated.ID,
		OrderNumber:    updated.OrderNumber,
		DeliveryStatus: string(updated.DeliveryStatus),
	})
	return updated, nil
}

func (s *orderService) AdminRelease(ctx context.Context, id uint64, adminUID string) (*model.Order, error) {
	var (
		updated  *model.Order
		released bool
	)
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if o.EscrowReleased {
			updated = o
			return nil
		}
		if o.Status == model.OrderStatusCancelled {
			return ErrAlreadySettled
		}
		now := time.Now()
		if err := s.release(ctx, tx, o, now, fmt.Sprintf("admin override release for order %s by %s", o.OrderNumber, adminUID)); err != nil {
			return err
		}
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		released = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if released {
		s.invalidateStatus(ctx, id)
		s.publisher.Publish(ctx, event.TypeEscrowReleased, updated.OrderNumber, event.EscrowReleasedPayload{
			OrderID:     updated.ID,
			OrderNumber: updated.OrderNumber,
			SellerUID:   updated.SellerUID,
			Amount:      updated.Subtotal,
			PlatformFee: updated.PlatformFee,
		})
	}
	return updated, nil
}
