package catalog_test

import (
	"chaikada/backend/internal/catalog"
	"chaikada/backend/internal/models"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Item{}, &models.Purchase{}))
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name string) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Price: 30, Emoji: "☕", Available: true, CanBeShared: true}
	require.NoError(t, db.Create(item).Error)
	return item
}

// TestCanShare verifies the remaining-quantity check.
func TestCanShare(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)
	item := seedItem(t, db, "Latte")

	ok, err := svc.CanShare(1, item.ID)
	require.NoError(t, err)
	assert.False(t, ok, "No purchase, nothing to share")

	require.NoError(t, db.Create(&models.Purchase{UserID: 1, ItemID: item.ID, Quantity: 1, RemainingQuantity: 1}).Error)

	ok, err = svc.CanShare(1, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanShare(2, item.ID)
	require.NoError(t, err)
	assert.False(t, ok, "Another user's purchase does not count")
}

// TestConsumeShare verifies the guarded decrement down to exhaustion.
func TestConsumeShare(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)
	item := seedItem(t, db, "Latte")
	require.NoError(t, db.Create(&models.Purchase{UserID: 1, ItemID: item.ID, Quantity: 2, RemainingQuantity: 2}).Error)

	purchase, got, err := svc.ConsumeShare(1, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, 1, purchase.RemainingQuantity)
	assert.True(t, purchase.SharedInChat)

	purchase, _, err = svc.ConsumeShare(1, item.ID)
	require.NoError(t, err)
	assert.Zero(t, purchase.RemainingQuantity)

	_, _, err = svc.ConsumeShare(1, item.ID)
	assert.ErrorIs(t, err, catalog.ErrNothingToShare)
}

// TestConsumeShare_DrawsFromOldestPurchase verifies FIFO across purchases of
// the same item.
func TestConsumeShare_DrawsFromOldestPurchase(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)
	item := seedItem(t, db, "Latte")

	older := &models.Purchase{UserID: 1, ItemID: item.ID, Quantity: 1, RemainingQuantity: 1}
	require.NoError(t, db.Create(older).Error)
	newer := &models.Purchase{UserID: 1, ItemID: item.ID, Quantity: 1, RemainingQuantity: 1}
	require.NoError(t, db.Create(newer).Error)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	purchase, _, err := svc.ConsumeShare(1, item.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, purchase.ID, "The oldest shareable purchase is spent first")
}
