package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/pos-dashboard/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type keyValueStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func exerciseStore(t *testing.T, store keyValueStore) {
	ctx := context.Background()

	_, found, err := store.GetItem(ctx, "trackedOrders")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetItem(ctx, "trackedOrders", `[{"orderTag":"A1"}]`))
	require.NoError(t, store.SetItem(ctx, "trackedOrders", `[{"orderTag":"A1"},{"orderTag":"B2"}]`))

	value, found, err := store.GetItem(ctx, "trackedOrders")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"orderTag":"A1"},{"orderTag":"B2"}]`, value)

	require.NoError(t, store.RemoveItem(ctx, "trackedOrders"))
	_, found, err = store.GetItem(ctx, "trackedOrders")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.RemoveItem(ctx, "trackedOrders"), "removing a missing key is not an error")
}

func TestGormStore(t *testing.T) {
	utils.SilenceLoggers()
	store, err := NewGormStore(setupTestDB(t))
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	utils.SilenceLoggers()

	client, err := ConnectRedis(context.Background(), redisURL)
	require.NoError(t, err)
	store := NewRedisStore(client, "pos-test:"+uuid.NewString()+":")
	defer store.Close()

	exerciseStore(t, store)
}
