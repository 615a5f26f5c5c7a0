package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/campusmart/campusmart-backend/internal/event"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutPreview struct {
	Group       SellerGroup
	PlatformFee int64
	Total       int64
}

type CheckoutService interface {
	// Preview computes per-seller totals and fees for display. Nothing
	// is persisted; the fee actually charged is recomputed at checkout.
	Preview(ctx context.Context, buyerUID string) ([]CheckoutPreview, error)
	// Checkout turns the buyer's cart into one escrow-backed order per
	// seller. Balance check, wallet debit, order creation, escrow
	// transactions and cart clearing are a single atomic unit: either
	// every seller group commits or none does.
	Checkout(ctx context.Context, buyerUID, deliveryMethod, notes string) ([]model.Order, error)
}

type checkoutService struct {
	txm         repository.TxManager
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	walletRepo  repository.WalletRepository
	txnRepo     repository.TransactionRepository
	feeRepo     repository.FeeScheduleRepository
	publisher   *event.Publisher
}

func NewCheckoutService(
	txm repository.TxManager,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	walletRepo repository.WalletRepository,
	txnRepo repository.TransactionRepository,
	feeRepo repository.FeeScheduleRepository,
	publisher *event.Publisher,
) CheckoutService {
	return &checkoutService{
		txm:         txm,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		walletRepo:  walletRepo,
		txnRepo:     txnRepo,
		feeRepo:     feeRepo,
		publisher:   publisher,
	}
}

func (s *checkoutService) Preview(ctx context.Context, buyerUID string) ([]CheckoutPreview, error) {
	groups, err := s.aggregate(ctx, s.cartRepo, s.productRepo, buyerUID)
	if err != nil {
		return nil, err
	}
	sched, err := s.feeRepo.Active(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CheckoutPreview, 0, len(groups))
	for _, g := range groups {
		fee := CalculateFee(g.Subtotal, g.Campus, sched)
		out = append(out, CheckoutPreview{Group: g, PlatformFee: fee, Total: g.Subtotal + fee})
	}
	return out, nil
}

func (s *checkoutService) Checkout(ctx context.Context, buyerUID, deliveryMethod, notes string) ([]model.Order, error) {
	if buyerUID == "" {
		return nil, errors.New("buyer is required")
	}
	var created []model.Order
	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		products := s.productRepo.WithTx(tx)
		orders := s.orderRepo.WithTx(tx)
		wallets := s.walletRepo.WithTx(tx)
		txns := s.txnRepo.WithTx(tx)

		cart, err := carts.FindOrCreate(ctx, buyerUID)
		if err != nil {
			return err
		}
		groups, err := s.aggregate(ctx, carts, products, buyerUID)
		if err != nil {
			return err
		}
		sched, err := s.feeRepo.WithTx(tx).Active(ctx)
		if err != nil {
			return err
		}

		fees := make([]int64, len(groups))
		var grandTotal int64
		for i, g := range groups {
			fees[i] = CalculateFee(g.Subtotal, g.Campus, sched)
			grandTotal += g.Subtotal + fees[i]
		}

		// Lock the wallet row so two concurrent checkouts by the same
		// buyer cannot both pass the balance check on a stale read.
		wallet, err := wallets.FindForUpdate(ctx, buyerUID)
		if err != nil {
			return err
		}
		if wallet.Frozen {
			return ErrWalletFrozen
		}
		if wallet.Balance < grandTotal {
			return ErrInsufficientFunds
		}
		if err := wallets.Debit(ctx, buyerUID, grandTotal); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientFunds
			}
			return err
		}

		now := time.Now()
		var consumed []uint64
		created = created[:0]
		for i, g := range groups {
			number, err := s.uniqueOrderNumber(ctx, orders)
			if err != nil {
				return err
			}
			order := model.Order{
				OrderNumber:    number,
				BuyerUID:       buyerUID,
				SellerUID:      g.SellerUID,
				Campus:         g.Campus,
				Subtotal:       g.Subtotal,
				PlatformFee:    fees[i],
				TotalAmount:    g.Subtotal + fees[i],
				Status:         model.OrderStatusPending,
				DeliveryStatus: model.DeliveryStatusPending,
				DeliveryMethod: deliveryMethod,
				Notes:          notes,
			}
			for _, it := range g.Items {
				order.Items = append(order.Items, model.OrderItem{
					ProductID:       it.ProductID,
					Quantity:        it.Quantity,
					Price:           it.Price,
					ProductSnapshot: model.SnapshotProduct(it.Product),
				})
				consumed = append(consumed, it.CartItemID)
			}
			if err := orders.Create(ctx, &order); err != nil {
				return err
			}
			escrow := model.Transaction{
				Reference:   uuid.NewString(),
				UserUID:     buyerUID,
				Type:        model.TransactionTypeEscrow,
				Direction:   model.DirectionDebit,
				Amount:      order.TotalAmount,
				Fee:         order.PlatformFee,
				Status:      model.TransactionStatusCompleted,
				OrderID:     &order.ID,
				Description: fmt.Sprintf("escrow hold for order %s", order.OrderNumber),
				CompletedAt: &now,
			}
			if err := txns.Create(ctx, &escrow); err != nil {
				return err
			}
			created = append(created, order)
		}

		return carts.DeleteItems(ctx, cart.ID, consumed)
	})
	if err != nil {
		return nil, err
	}

	for _, o := range created {
		s.publisher.Publish(ctx, event.TypeOrderCreated, o.OrderNumber, event.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			BuyerUID:    o.BuyerUID,
			SellerUID:   o.SellerUID,
			TotalAmount: o.TotalAmount,
		})
	}
	return created, nil
}

func (s *checkoutService) aggregate(ctx context.Context, carts repository.CartRepository, products repository.ProductRepository, buyerUID string) ([]SellerGroup, error) {
	cart, err := carts.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	items, err := carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	byID, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return GroupCartItems(items, byID)
}

// uniqueOrderNumber generates ORD-<unix-millis>-<3 digits>, retrying on
// the unlikely collision. The unique index on order_number backstops
// the race between check and insert.
func (s *checkoutService) uniqueOrderNumber(ctx context.Context, orders repository.OrderRepository) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number := fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
		_, err := orders.FindByNumber(ctx, number)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique order number")
}
