package server

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/campusmart/campusmart-backend/internal/cache"
	"github.com/campusmart/campusmart-backend/internal/config"
	"github.com/campusmart/campusmart-backend/internal/event"
	"github.com/campusmart/campusmart-backend/internal/handler"
	appmw "github.com/campusmart/campusmart-backend/internal/middleware"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e     *echo.Echo
	repos []interface{ SetDB(*gorm.DB) }
	sha   string
	build string
}

func New(cfg *config.Config, db *gorm.DB, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Webhook-Secret"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	publisher := event.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, "campusmart-api")
	statuses := cache.NewOrderStatusCache(cfg.RedisAddr)

	txm := repository.NewTxManager(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	feeRepo := repository.NewFeeScheduleRepository(db)
	gigRepo := repository.NewGigRepository(db)

	cartSvc := service.NewCartService(cartRepo, productRepo)
	checkoutSvc := service.NewCheckoutService(txm, cartRepo, productRepo, orderRepo, walletRepo, txnRepo, feeRepo, publisher)
	orderSvc := service.NewOrderService(txm, orderRepo, walletRepo, txnRepo, statuses, publisher)
	walletSvc := service.NewWalletService(txm, walletRepo, txnRepo, publisher)
	gigSvc := service.NewGigService(txm, gigRepo, walletRepo, txnRepo, feeRepo, publisher)

	productHandler := handler.NewProductHandler(productRepo)
	cartHandler := handler.NewCartHandler(cartSvc, checkoutSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, checkoutSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	gigHandler := handler.NewGigHandler(gigSvc)

	authMw, err := appmw.NewAuthMiddleware(context.Background(), cfg.IsAdmin)
	if err != nil {
		log.Printf("firebase auth unavailable: %v", err)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	requireAuth := func(h echo.HandlerFunc) (echo.HandlerFunc, []echo.MiddlewareFunc) {
		if authMw == nil {
			return h, nil
		}
		return h, []echo.MiddlewareFunc{authMw.RequireAuth}
	}
	route := func(method, path string, h echo.HandlerFunc) {
		fn, mws := requireAuth(h)
		api.Add(method, path, fn, mws...)
	}

	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)

	route(http.MethodGet, "/cart", cartHandler.Get)
	route(http.MethodPost, "/cart/items", cartHandler.AddItem)
	route(http.MethodPut, "/cart/items/:productId", cartHandler.UpdateItem)
	route(http.MethodDelete, "/cart/items/:productId", cartHandler.RemoveItem)
	route(http.MethodGet, "/cart/checkout-preview", cartHandler.CheckoutPreview)

	route(http.MethodPost, "/orders", orderHandler.Create)
	route(http.MethodGet, "/me/orders", orderHandler.ListMine)
	route(http.MethodGet, "/me/sales", orderHandler.ListSales)
	route(http.MethodGet, "/orders/:id", orderHandler.Get)
	route(http.MethodGet, "/orders/:id/status", orderHandler.GetStatus)
	route(http.MethodPut, "/orders/:id/delivery-status", orderHandler.UpdateDeliveryStatus)
	route(http.MethodPut, "/orders/:id/confirm-delivery", orderHandler.ConfirmDelivery)
	route(http.MethodPut, "/orders/:id/cancel", orderHandler.Cancel)
	route(http.MethodPut, "/orders/:id/dispute", orderHandler.Dispute)

	route(http.MethodGet, "/wallet", walletHandler.Get)
	route(http.MethodGet, "/wallet/transactions", walletHandler.ListTransactions)
	route(http.MethodPost, "/wallet/deposit", walletHandler.Deposit)
	route(http.MethodPost, "/wallet/withdraw", walletHandler.Withdraw)
	api.POST("/wallet/withdrawals/:reference/settle", walletHandler.SettlePayout,
		appmw.RequireWebhookSecret(cfg.PayoutWebhookSecret))

	route(http.MethodPost, "/gigs", gigHandler.Create)
	route(http.MethodGet, "/gigs/:id", gigHandler.Get)
	route(http.MethodPost, "/gigs/:id/bids", gigHandler.PlaceBid)
	route(http.MethodPost, "/gigs/:id/bids/:bidId/accept", gigHandler.AcceptBid)
	route(http.MethodPost, "/gigs/:id/complete", gigHandler.Complete)
	route(http.MethodPost, "/gigs/:id/cancel", gigHandler.Cancel)

	if authMw != nil {
		admin := api.Group("/admin", authMw.RequireAdmin)
		admin.PUT("/orders/:id/release", orderHandler.AdminRelease)
		admin.POST("/wallets/:uid/reconcile", walletHandler.Reconcile)
	}

	return &Server{
		e: e,
		repos: []interface{ SetDB(*gorm.DB) }{
			txm, productRepo, cartRepo, orderRepo, walletRepo, txnRepo, feeRepo, gigRepo,
		},
		sha:   sha,
		build: buildTime,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB attaches a late database connection; the server can come up and
// serve health checks before the database is reachable.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
}
