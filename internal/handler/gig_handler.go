package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type GigHandler struct {
	gigs service.GigService
}

func NewGigHandler(gigs service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

type BidResponse struct {
	ID            uint64 `json:"id"`
	GigID         uint64 `json:"gigId"`
	FreelancerUID string `json:"freelancerUid"`
	Amount        int64  `json:"amount"`
	Message       string `json:"message,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
}

type GigResponse struct {
	ID               uint64        `json:"id"`
	PosterUID        string        `json:"posterUid"`
	Campus           string        `json:"campus"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Budget           int64         `json:"budget"`
	Status           string        `json:"status"`
	PaymentStatus    string        `json:"paymentStatus"`
	AcceptedBidID    *uint64       `json:"acceptedBidId,omitempty"`
	EscrowAmount     int64         `json:"escrowAmount"`
	PlatformFee      int64         `json:"platformFee"`
	EscrowReleasedAt *string       `json:"escrowReleasedAt,omitempty"`
	CancelReason     string        `json:"cancelReason,omitempty"`
	Bids             []BidResponse `json:"bids,omitempty"`
	CreatedAt        string        `json:"createdAt"`
}

func toBidResponse(b *model.Bid) BidResponse {
	return BidResponse{
		ID:            b.ID,
		GigID:         b.GigID,
		FreelancerUID: b.FreelancerUID,
		Amount:        b.Amount,
		Message:       b.Message,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

func toGigResponse(g *model.Gig, bids []model.Bid) GigResponse {
	resp := GigResponse{
		ID:               g.ID,
		PosterUID:        g.PosterUID,
		Campus:           g.Campus,
		Title:            g.Title,
		Description:      g.Description,
		Budget:           g.Budget,
		Status:           string(g.Status),
		PaymentStatus:    string(g.PaymentStatus),
		AcceptedBidID:    g.AcceptedBidID,
		EscrowAmount:     g.EscrowAmount,
		PlatformFee:      g.PlatformFee,
		EscrowReleasedAt: formatTimePtr(g.EscrowReleasedAt),
		CancelReason:     g.CancelReason,
		CreatedAt:        g.CreatedAt.Format(time.RFC3339),
	}
	for i := range bids {
		resp.Bids = append(resp.Bids, toBidResponse(&bids[i]))
	}
	return resp
}

func (h *GigHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Campus      string `json:"campus"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Budget      int64  `json:"budget"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	g, err := h.gigs.Create(c.Request().Context(), uid, body.Campus, body.Title, body.Description, body.Budget)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toGigResponse(g, nil))
}

func (h *GigHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid gig id"))
	}
	g, bids, err := h.gigs.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGigResponse(g, bids))
}

func (h *GigHandler) PlaceBid(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid gig id"))
	}
	var body struct {
		Amount  int64  `json:"amount"`
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	b, err := h.gigs.PlaceBid(c.Request().Context(), id, uid, body.Amount, body.Message)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toBidResponse(b))
}

func (h *GigHandler) AcceptBid(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	gigID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid gig id"))
	}
	bidID, err := strconv.ParseUint(c.Param("bidId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid bid id"))
	}
	g, err := h.gigs.AcceptBid(c.Request().Context(), gigID, bidID, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGigResponse(g, nil))
}

func (h *GigHandler) Complete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid gig id"))
	}
	g, err := h.gigs.Complete(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGigResponse(g, nil))
}

func (h *GigHandler) Cancel(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid gig id"))
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	g, err := h.gigs.Cancel(c.Request().Context(), id, uid, body.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGigResponse(g, nil))
}
