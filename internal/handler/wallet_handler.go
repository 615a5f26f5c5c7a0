package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type WalletHandler struct {
	wallets service.WalletService
}

func NewWalletHandler(wallets service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type WalletResponse struct {
	Balance          int64   `json:"balance"`
	PendingBalance   int64   `json:"pendingBalance"`
	TotalEarned      int64   `json:"totalEarned"`
	TotalSpent       int64   `json:"totalSpent"`
	Frozen           bool    `json:"frozen"`
	LastWithdrawalAt *string `json:"lastWithdrawalAt,omitempty"`
}

func toWalletResponse(w *model.Wallet) WalletResponse {
	return WalletResponse{
		Balance:          w.Balance,
		PendingBalance:   w.PendingBalance,
		TotalEarned:      w.TotalEarned,
		TotalSpent:       w.TotalSpent,
		Frozen:           w.Frozen,
		LastWithdrawalAt: formatTimePtr(w.LastWithdrawalAt),
	}
}

type TransactionResponse struct {
	Reference   string  `json:"reference"`
	Type        string  `json:"type"`
	Direction   string  `json:"direction"`
	Amount      int64   `json:"amount"`
	Fee         int64   `json:"fee"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

func toTransactionResponse(t *model.Transaction) TransactionResponse {
	return TransactionResponse{
		Reference:   t.Reference,
		Type:        string(t.Type),
		Direction:   string(t.Direction),
		Amount:      t.Amount,
		Fee:         t.Fee,
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		CompletedAt: formatTimePtr(t.CompletedAt),
	}
}

func (h *WalletHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	w, err := h.wallets.Get(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch wallet"))
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}

func (h *WalletHandler) ListTransactions(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	list, err := h.wallets.Transactions(c.Request().Context(), uid, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch transactions"))
	}
	resp := make([]TransactionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toTransactionResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) Deposit(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Amount    int64  `json:"amount"`
		Reference string `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	w, err := h.wallets.Deposit(c.Request().Context(), uid, body.Amount, body.Reference)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}

func (h *WalletHandler) Withdraw(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	t, err := h.wallets.Withdraw(c.Request().Context(), uid, body.Amount)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusAccepted, toTransactionResponse(t))
}

// SettlePayout is the payout gateway webhook; it is guarded by a shared
// secret instead of a user token.
func (h *WalletHandler) SettlePayout(c echo.Context) error {
	reference := c.Param("reference")
	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	succeeded := body.Outcome == "completed"
	if !succeeded && body.Outcome != "failed" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "outcome must be completed or failed"))
	}
	if err := h.wallets.SettleWithdrawal(c.Request().Context(), reference, succeeded); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WalletHandler) Reconcile(c echo.Context) error {
	uid := c.Param("uid")
	if err := h.wallets.Reconcile(c.Request().Context(), uid); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
