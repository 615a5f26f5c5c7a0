package service

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrForbidden = errors.New("forbidden")

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientFunds    = errors.New("insufficient balance, deposit required")
	ErrOutOfOrderTransition = errors.New("transition not allowed from current state")
	ErrAlreadySettled       = errors.New("escrow already settled")
	ErrWalletFrozen         = errors.New("wallet frozen pending audit")
	ErrDuplicateReference   = errors.New("payment reference already used")
)

// StaleCartItemError lists the products that can no longer be checked
// out (disabled or deleted listings). The caller surfaces these so the
// buyer can clean up the cart; no partial checkout happens silently.
type StaleCartItemError struct {
	ProductIDs []uint64
}

func (e *StaleCartItemError) Error() string {
	return fmt.Sprintf("cart references %d unavailable product(s)", len(e.ProductIDs))
}

// ReconciliationError means a wallet's balance no longer matches its
// completed transaction history. Correct code never produces it; the
// affected wallet is frozen until a manual audit resolves it.
type ReconciliationError struct {
	UID      string
	Expected int64
	Actual   int64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("wallet %s out of balance: ledger says %d, wallet holds %d", e.UID, e.Expected, e.Actual)
}
