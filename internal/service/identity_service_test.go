package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/logger"
	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

func newIdentityService(t *testing.T) (*IdentityService, context.Context) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Notification{}))

	rdb, _ := redismock.NewClientMock()
	log, _ := logger.NewLogger()
	repository := repo.NewRepository(db, rdb, &kafka.Writer{}, log)
	notifier := NewNotificationService(repository, log)
	return NewIdentityService(repository, notifier, log), context.Background()
}

func TestIdentitySubmitAndReview(t *testing.T) {
	svc, ctx := newIdentityService(t)
	require.NoError(t, svc.repo.DB(ctx).Create(&model.User{
		ID: 1, FirstName: "Jo", LastName: "Smith", Email: "jo@example.com",
	}).Error)

	err := svc.SubmitDocuments(ctx, 1, "/uploads/id/front.png", "", "/uploads/id/selfie.png")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, svc.SubmitDocuments(ctx, 1,
		"/uploads/id/front.png", "/uploads/id/back.png", "/uploads/id/selfie.png"))

	// one broadcast for admins, one ack for the user
	var broadcastCount, directCount int64
	svc.repo.DB(ctx).Model(&model.Notification{}).Where("broadcast = ?", true).Count(&broadcastCount)
	svc.repo.DB(ctx).Model(&model.Notification{}).Where("user_id = ?", 1).Count(&directCount)
	assert.EqualValues(t, 1, broadcastCount)
	assert.EqualValues(t, 1, directCount)

	require.NoError(t, svc.Review(ctx, 1, true, ""))
	var u model.User
	require.NoError(t, svc.repo.DB(ctx).First(&u, 1).Error)
	assert.True(t, u.IdentityVerified)

	notes := "document expired"
	require.NoError(t, svc.Review(ctx, 1, false, notes))
	require.NoError(t, svc.repo.DB(ctx).First(&u, 1).Error)
	assert.False(t, u.IdentityVerified)

	var last model.Notification
	require.NoError(t, svc.repo.DB(ctx).
		Where("user_id = ?", 1).Order("id desc").First(&last).Error)
	assert.Equal(t, model.NotifyWarning, last.Type)
	assert.Equal(t, notes, last.Message)

	assert.ErrorIs(t, svc.Review(ctx, 404, true, ""), ErrNotFound)
}
