package db

import (
	"boothpos/internal/config"
	"boothpos/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// OpenSQLite はローカル検証用。":memory:" 等を渡す
func OpenSQLite(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	//接続を1本にしてTxを直列化する
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// 全テーブル
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.Booth{},
		&model.Table{},
		&model.Menu{},
		&model.SetMenu{},
		&model.SetMenuItem{},
		&model.Cart{},
		&model.CartMenu{},
		&model.CartSetMenu{},
		&model.Coupon{},
		&model.TableCoupon{},
		&model.Order{},
		&model.OrderMenu{},
		&model.OrderSetMenu{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	)
}
