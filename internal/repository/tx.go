package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// TxManager runs a function inside a single database transaction.
// Repositories are rebound to the transaction via WithTx so the whole
// unit commits or rolls back together.
type TxManager interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
	SetDB(db *gorm.DB)
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if m.db == nil {
		return ErrDBNotReady
	}
	return m.db.WithContext(ctx).Transaction(fn)
}

func (m *gormTxManager) SetDB(db *gorm.DB) {
	m.db = db
}
