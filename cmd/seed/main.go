package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/campusmart/campusmart-backend/internal/config"
	"github.com/campusmart/campusmart-backend/internal/db"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type seedProduct struct {
	SellerUID   string
	Campus      string
	Title       string
	Description string
	Price       int64
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	if err := gdb.AutoMigrate(
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
		return fmt.Errorf("auto migrate: %w", err)
	}

	canSeed, err := shouldSeed(gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("products already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	products := buildSeedProducts()
	wallets := buildSeedWallets()
	schedule := model.DefaultFeeSchedule()

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
		for i := range wallets {
			if err := tx.Create(&wallets[i]).Error; err != nil {
				return fmt.Errorf("insert wallet %s: %w", wallets[i].UID, err)
			}
		}
		if err := tx.Create(schedule).Error; err != nil {
			return fmt.Errorf("insert fee schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d products, %d wallets, 1 fee schedule", len(products), len(wallets))
	return nil
}

func buildSeedProducts() []model.Product {
	seeds := []seedProduct{
		{SellerUID: "seed-seller-a", Campus: "north", Title: "Linear Algebra Done Right (3rd ed.)", Description: "Lightly annotated, binding intact. Pickup at the north campus library.", Price: 1800},
		{SellerUID: "seed-seller-a", Campus: "north", Title: "TI-84 Plus graphing calculator", Description: "Works fine, fresh batteries included.", Price: 4500},
		{SellerUID: "seed-seller-a", Campus: "north", Title: "Mini fridge 45L", Description: "Two semesters of use, runs quiet. Dorm pickup only.", Price: 6000},
		{SellerUID: "seed-seller-b", Campus: "north", Title: "Desk lamp with USB port", Description: "Warm/cool modes, dimmable.", Price: 1200},
		{SellerUID: "seed-seller-b", Campus: "north", Title: "Organic Chemistry model kit", Description: "Complete set, box a bit worn.", Price: 900},
		{SellerUID: "seed-seller-b", Campus: "south", Title: "Acoustic guitar with soft case", Description: "Entry-level, new strings last month.", Price: 7500},
		{SellerUID: "seed-seller-c", Campus: "south", Title: "Road bike, 54cm frame", Description: "Recently tuned, minor scratches on the top tube.", Price: 18000},
		{SellerUID: "seed-seller-c", Campus: "south", Title: "Noise cancelling headphones", Description: "Ear pads replaced, sounds great.", Price: 5200},
		{SellerUID: "seed-seller-c", Campus: "south", Title: "Dorm-size rice cooker", Description: "3 cups, non-stick bowl in good shape.", Price: 2100},
		{SellerUID: "seed-seller-c", Campus: "south", Title: "Intro Microeconomics bundle", Description: "Textbook plus workbook, some highlighting.", Price: 2400},
	}
	out := make([]model.Product, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, model.Product{
			SellerUID:   s.SellerUID,
			Campus:      s.Campus,
			Title:       s.Title,
			Description: s.Description,
			Price:       s.Price,
		})
	}
	return out
}

func buildSeedWallets() []model.Wallet {
	return []model.Wallet{
		{UID: "seed-buyer", Balance: 10000},
		{UID: "seed-seller-a"},
		{UID: "seed-seller-b"},
		{UID: "seed-seller-c"},
	}
}

func shouldSeed(gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.Model(&model.Product{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
