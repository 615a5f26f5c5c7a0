package main

import (
	"log"

	"github.com/campusmart/campusmart-backend/internal/config"
	"github.com/campusmart/campusmart-backend/internal/db"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/server"
	"github.com/joho/godotenv"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	srv := server.New(cfg, nil, gitSHA, buildTime)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// Connect in the background so health checks pass while the
	// database is still coming up.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		srv.SetDB(conn)
		if err := conn.AutoMigrate(
			&model.Product{},
			&model.Cart{},
			&model.CartItem{},
			&model.Order{},
			&model.OrderItem{},
			&model.Wallet{},
			&model.Transaction{},
			&model.Gig{},
			&model.Bid{},
			&model.FeeSchedule{},
		); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
