package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusmart/campusmart-backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// clientFoundRows makes UPDATE report matched rows instead of changed
// rows. The ledger's guarded updates treat zero affected rows as a
// failed guard, so a same-value write must still count as a match.
const dsnParams = "charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true"

func hostAddr(cfg *config.Config) string {
	switch {
	case cfg.InstanceConnectionName != "":
		return fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	case strings.HasPrefix(cfg.DBHost, "tcp("), strings.HasPrefix(cfg.DBHost, "unix("):
		return cfg.DBHost
	case strings.HasPrefix(cfg.DBHost, "/"):
		return fmt.Sprintf("unix(%s)", cfg.DBHost)
	default:
		return fmt.Sprintf("tcp(%s:%s)", cfg.DBHost, cfg.DBPort)
	}
}

func BuildDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@%s/%s?%s", cfg.DBUser, cfg.DBPassword, hostAddr(cfg), cfg.DBName, dsnParams)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(BuildDSN(cfg)), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Checkout and settlement hold row locks across multi-statement
	// transactions, so the pool leans toward more open connections with
	// a shorter lifetime than a read-mostly service would use.
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)

	return db, nil
}
