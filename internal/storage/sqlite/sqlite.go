// Package sqlite keeps carts in a local SQLite file through gorm.
package sqlite

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/xenking/storefront/internal/cart"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

var _ cart.Storage = (*Storage)(nil)

// cartSlot is one persisted cart value.
type cartSlot struct {
	Key       string `gorm:"column:slot_key;primaryKey"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (cartSlot) TableName() string { return "cart_slots" }

// Storage is a cart.Storage backed by SQLite.
type Storage struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at dsn and migrates the
// schema. SQL statements are logged to lg at debug level.
func Open(dsn string, lg *zap.Logger) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(zap.NewStdLog(lg), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if dsn == MemoryDSN {
		// Every pooled connection would get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&cartSlot{}); err != nil {
		return nil, errors.Wrap(err, "migrate sqlite")
	}
	return &Storage{db: db}, nil
}

// Load implements cart.Storage.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	var slot cartSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).Take(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrNoValue
		}
		return nil, errors.Wrapf(err, "load %q", key)
	}
	return slot.Data, nil
}

// Save implements cart.Storage.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	slot := cartSlot{Key: key, Data: data, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return errors.Wrapf(err, "save %q", key)
	}
	return nil
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.Close()
}
