package service

import (
	"context"
	"testing"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gigFixture struct {
	gigs    *fakeGigRepo
	wallets *fakeWalletRepo
	txns    *fakeTransactionRepo
	svc     GigService
}

func newGigFixture() *gigFixture {
	f := &gigFixture{
		gigs:    newFakeGigRepo(),
		wallets: newFakeWalletRepo(),
		txns:    newFakeTransactionRepo(),
	}
	f.svc = NewGigService(&fakeTxManager{}, f.gigs, f.wallets, f.txns, &fakeFeeScheduleRepo{}, nil)
	return f
}

func (f *gigFixture) seedEscrowedGig(t *testing.T) (*model.Gig, *model.Bid) {
	t.Helper()
	ctx := context.Background()
	f.wallets.set("poster-1", 10000)
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "two flights of stairs", 3000)
	require.NoError(t, err)
	b, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-1", 2000, "can do Saturday")
	require.NoError(t, err)
	g, err = f.svc.AcceptBid(ctx, g.ID, b.ID, "poster-1")
	require.NoError(t, err)
	return g, b
}

func TestGigCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()

	_, err := f.svc.Create(ctx, "poster-1", "north", "  ", "desc", 1000)
	assert.Error(t, err)
	_, err = f.svc.Create(ctx, "poster-1", "north", "title", "desc", 0)
	assert.Error(t, err)
	_, err = f.svc.Create(ctx, "poster-1", "north", "title", "desc", -5)
	assert.Error(t, err)

	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)
	assert.Equal(t, model.GigStatusOpen, g.Status)
	assert.Equal(t, model.GigPaymentPending, g.PaymentStatus)
}

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)

	b, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-1", 2000, "hi")
	require.NoError(t, err)
	assert.Equal(t, model.BidStatusPending, b.Status)

	// Posters cannot bid on their own gigs.
	_, err = f.svc.PlaceBid(ctx, g.ID, "poster-1", 2000, "")
	assert.Error(t, err)

	_, err = f.svc.PlaceBid(ctx, g.ID, "freelancer-2", 0, "")
	assert.Error(t, err)
}

func TestAcceptBidEscrowsFunds(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	f.wallets.set("poster-1", 10000)
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)
	b1, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-1", 2000, "")
	require.NoError(t, err)
	b2, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-2", 2500, "")
	require.NoError(t, err)

	updated, err := f.svc.AcceptBid(ctx, g.ID, b1.ID, "poster-1")
	require.NoError(t, err)

	assert.Equal(t, model.GigStatusAssigned, updated.Status)
	assert.Equal(t, model.GigPaymentInEscrow, updated.PaymentStatus)
	require.NotNil(t, updated.AcceptedBidID)
	assert.Equal(t, b1.ID, *updated.AcceptedBidID)
	assert.Equal(t, int64(2000), updated.EscrowAmount)
	// 5% of 2000, clamped to the 50 minimum -> 100.
	assert.Equal(t, int64(100), updated.PlatformFee)

	// Poster paid bid plus fee.
	assert.Equal(t, int64(7900), f.wallets.get("poster-1").Balance)

	escrows := f.txns.byType(model.TransactionTypeEscrow)
	require.Len(t, escrows, 1)
	assert.Equal(t, int64(2100), escrows[0].Amount)
	assert.Equal(t, int64(100), escrows[0].Fee)
	require.NotNil(t, escrows[0].GigID)
	assert.Equal(t, g.ID, *escrows[0].GigID)

	// Competing bids are closed out.
	assert.Equal(t, model.BidStatusAccepted, f.gigs.getBid(b1.ID).Status)
	assert.Equal(t, model.BidStatusRejected, f.gigs.getBid(b2.ID).Status)
}

func TestAcceptBidInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	f.wallets.set("poster-1", 2000) // bid 2000 + fee 100 > 2000
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)
	b, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-1", 2000, "")
	require.NoError(t, err)

	_, err = f.svc.AcceptBid(ctx, g.ID, b.ID, "poster-1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(2000), f.wallets.get("poster-1").Balance)
	assert.Equal(t, model.GigStatusOpen, f.gigs.getGig(g.ID).Status)
}

func TestAcceptBidWrongPoster(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	f.wallets.set("poster-1", 10000)
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)
	b, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-1", 2000, "")
	require.NoError(t, err)

	_, err = f.svc.AcceptBid(ctx, g.ID, b.ID, "someone-else")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAcceptBidTwice(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, b := f.seedEscrowedGig(t)

	_, err := f.svc.AcceptBid(ctx, g.ID, b.ID, "poster-1")
	assert.ErrorIs(t, err, ErrOutOfOrderTransition)
	// No double escrow.
	assert.Len(t, f.txns.byType(model.TransactionTypeEscrow), 1)
}

func TestGigCompleteReleasesEscrow(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)

	updated, err := f.svc.Complete(ctx, g.ID, "poster-1")
	require.NoError(t, err)
	assert.Equal(t, model.GigStatusCompleted, updated.Status)
	assert.Equal(t, model.GigPaymentReleased, updated.PaymentStatus)
	assert.NotNil(t, updated.EscrowReleasedAt)

	// Freelancer gets the bid amount; the fee is retained.
	assert.Equal(t, int64(2000), f.wallets.get("freelancer-1").Balance)
	assert.Equal(t, int64(2000), f.wallets.get("freelancer-1").TotalEarned)

	releases := f.txns.byType(model.TransactionTypeRelease)
	require.Len(t, releases, 1)
	assert.Equal(t, "freelancer-1", releases[0].UserUID)
	assert.Equal(t, int64(2000), releases[0].Amount)
	assert.Equal(t, int64(100), releases[0].Fee)
}

func TestGigCompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)

	_, err := f.svc.Complete(ctx, g.ID, "poster-1")
	require.NoError(t, err)
	again, err := f.svc.Complete(ctx, g.ID, "poster-1")
	require.NoError(t, err)
	assert.Equal(t, model.GigPaymentReleased, again.PaymentStatus)

	assert.Equal(t, int64(2000), f.wallets.get("freelancer-1").Balance)
	assert.Len(t, f.txns.byType(model.TransactionTypeRelease), 1)
}

func TestGigCompleteBeforeEscrow(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, g.ID, "poster-1")
	assert.ErrorIs(t, err, ErrOutOfOrderTransition)
}

func TestGigCompleteFrozenFreelancerWallet(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)
	f.wallets.set("freelancer-1", 0)
	f.wallets.get("freelancer-1").Frozen = true

	_, err := f.svc.Complete(ctx, g.ID, "poster-1")
	assert.ErrorIs(t, err, ErrWalletFrozen)

	// Escrow stays held: no payout, no release row, gig unchanged.
	assert.Equal(t, int64(0), f.wallets.get("freelancer-1").Balance)
	assert.Empty(t, f.txns.byType(model.TransactionTypeRelease))
	assert.Equal(t, model.GigPaymentInEscrow, f.gigs.getGig(g.ID).PaymentStatus)
}

func TestGigCancelFrozenPosterWallet(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)
	f.wallets.get("poster-1").Frozen = true

	_, err := f.svc.Cancel(ctx, g.ID, "poster-1", "no longer needed")
	assert.ErrorIs(t, err, ErrWalletFrozen)

	assert.Empty(t, f.txns.byType(model.TransactionTypeRefund))
	assert.Equal(t, model.GigPaymentInEscrow, f.gigs.getGig(g.ID).PaymentStatus)
	assert.NotEqual(t, model.GigStatusCancelled, f.gigs.getGig(g.ID).Status)
}

func TestGigCancelRefundsEscrow(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)

	updated, err := f.svc.Cancel(ctx, g.ID, "poster-1", "no longer needed")
	require.NoError(t, err)
	assert.Equal(t, model.GigStatusCancelled, updated.Status)
	assert.Equal(t, model.GigPaymentRefunded, updated.PaymentStatus)

	// Bid plus fee back: the fee is only earned on release.
	assert.Equal(t, int64(10000), f.wallets.get("poster-1").Balance)

	refunds := f.txns.byType(model.TransactionTypeRefund)
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(2100), refunds[0].Amount)
}

func TestGigCancelAfterRelease(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)

	_, err := f.svc.Complete(ctx, g.ID, "poster-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, g.ID, "poster-1", "changed my mind")
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Equal(t, int64(2000), f.wallets.get("freelancer-1").Balance)
}

func TestGigCancelOpenNoRefund(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	f.wallets.set("poster-1", 5000)
	g, err := f.svc.Create(ctx, "poster-1", "north", "Move a couch", "desc", 3000)
	require.NoError(t, err)

	updated, err := f.svc.Cancel(ctx, g.ID, "poster-1", "filled elsewhere")
	require.NoError(t, err)
	assert.Equal(t, model.GigStatusCancelled, updated.Status)
	assert.Equal(t, model.GigPaymentPending, updated.PaymentStatus)
	assert.Empty(t, f.txns.txns)
	assert.Equal(t, int64(5000), f.wallets.get("poster-1").Balance)
}

func TestBidOnAssignedGig(t *testing.T) {
	ctx := context.Background()
	f := newGigFixture()
	g, _ := f.seedEscrowedGig(t)

	_, err := f.svc.PlaceBid(ctx, g.ID, "freelancer-2", 1500, "")
	assert.ErrorIs(t, err, ErrOutOfOrderTransition)
}
