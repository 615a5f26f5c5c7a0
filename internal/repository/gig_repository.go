package repository

import (
	"context"

	"github.com/campusmart/campusmart-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GigRepository interface {
	CreateGig(ctx context.Context, g *model.Gig) error
	FindGigByID(ctx context.Context, id uint64) (*model.Gig, error)
	FindGigForUpdate(ctx context.Context, id uint64) (*model.Gig, error)
	UpdateGig(ctx context.Context, g *model.Gig) error
	ListGigsByPoster(ctx context.Context, posterUID string) ([]model.Gig, error)
	CreateBid(ctx context.Context, b *model.Bid) error
	FindBidByID(ctx context.Context, id uint64) (*model.Bid, error)
	ListBidsByGig(ctx context.Context, gigID uint64) ([]model.Bid, error)
	UpdateBid(ctx context.Context, b *model.Bid) error
	RejectOtherBids(ctx context.Context, gigID, acceptedBidID uint64) error
	WithTx(tx *gorm.DB) GigRepository
	SetDB(db *gorm.DB)
}

type gigRepository struct {
	db *gorm.DB
}

func NewGigRepository(db *gorm.DB) GigRepository {
	return &gigRepository{db: db}
}

func (r *gigRepository) CreateGig(ctx context.Context, g *model.Gig) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *gigRepository) FindGigByID(ctx context.Context, id uint64) (*model.Gig, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var g model.Gig
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gigRepository) FindGigForUpdate(ctx context.Context, id uint64) (*model.Gig, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var g model.Gig
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gigRepository) UpdateGig(ctx context.Context, g *model.Gig) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *gigRepository) ListGigsByPoster(ctx context.Context, posterUID string) ([]model.Gig, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Gig
	if err := r.db.WithContext(ctx).
		Where("poster_uid = ?", posterUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *gigRepository) CreateBid(ctx context.Context, b *model.Bid) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *gigRepository) FindBidByID(ctx context.Context, id uint64) (*model.Bid, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var b model.Bid
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *gigRepository) ListBidsByGig(ctx context.Context, gigID uint64) ([]model.Bid, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Bid
	if err := r.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *gigRepository) UpdateBid(ctx context.Context, b *model.Bid) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *gigRepository) RejectOtherBids(ctx context.Context, gigID, acceptedBidID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Bid{}).
		Where("gig_id = ? AND id <> ? AND status = ?", gigID, acceptedBidID, model.BidStatusPending).
		Update("status", model.BidStatusRejected).Error
}

func (r *gigRepository) WithTx(tx *gorm.DB) GigRepository {
	if tx == nil {
		return r
	}
	return &gigRepository{db: tx}
}

func (r *gigRepository) SetDB(db *gorm.DB) {
	r.db = db
}
