package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/logger"
	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

func newRateService(t *testing.T) (*RateService, context.Context) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.ExchangeRate{}, &model.Notification{}))

	rdb, _ := redismock.NewClientMock()
	log, _ := logger.NewLogger()
	repository := repo.NewRepository(db, rdb, &kafka.Writer{}, log)
	notifier := NewNotificationService(repository, log)
	return NewRateService(repository, notifier, log), context.Background()
}

func broadcasts(t *testing.T, svc *RateService, ctx context.Context) []model.Notification {
	t.Helper()
	var ns []model.Notification
	require.NoError(t, svc.repo.DB(ctx).
		Where("broadcast = ?", true).Order("created_at").Find(&ns).Error)
	return ns
}

func TestRateUpsert(t *testing.T) {
	svc, ctx := newRateService(t)

	// insert announces a new pair
	er, err := svc.Set(ctx, 9, "USD_TRY", decimal.RequireFromString("35.42"), decimal.RequireFromString("0.0235"))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), er.UpdatedBy)

	ns := broadcasts(t, svc, ctx)
	require.Len(t, ns, 1)
	assert.Equal(t, "New Rate Added", ns[0].Title)
	assert.Contains(t, ns[0].Message, "USD_TRY")

	// update keeps a single row and reports the direction of the change
	_, err = svc.Set(ctx, 9, "USD_TRY", decimal.RequireFromString("36.10"), decimal.RequireFromString("0.0235"))
	require.NoError(t, err)

	rates, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Rate.Equal(decimal.RequireFromString("36.10")))

	ns = broadcasts(t, svc, ctx)
	require.Len(t, ns, 2)
	assert.Equal(t, "Rate Updated", ns[1].Title)
	assert.Contains(t, ns[1].Message, "went up")
}

func TestRateGet(t *testing.T) {
	svc, ctx := newRateService(t)

	_, err := svc.Get(ctx, "EUR_TRY")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Set(ctx, 1, "EUR_TRY", decimal.RequireFromString("38"), decimal.Zero)
	require.NoError(t, err)

	er, err := svc.Get(ctx, "EUR_TRY")
	require.NoError(t, err)
	assert.True(t, er.Rate.Equal(decimal.RequireFromString("38")))
}

func TestRateValidation(t *testing.T) {
	svc, ctx := newRateService(t)

	_, err := svc.Set(ctx, 1, "", decimal.NewFromInt(1), decimal.Zero)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Set(ctx, 1, "USD_TRY", decimal.Zero, decimal.Zero)
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Set(ctx, 1, "USD_TRY", decimal.NewFromInt(30), decimal.NewFromInt(1))
	assert.ErrorAs(t, err, &ve)
}
