package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

// NotificationService creates and serves inbox messages. Dispatch is
// fire-and-forget: the engine commits its state change first and a failed
// notification is logged, never propagated.
type NotificationService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

// NewNotificationService returns NotificationService.
func NewNotificationService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{repo: r, log: logger}
}

// NotifyUser dispatches a direct notification.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint64, title, message, typ, entityType string, entityID uint64) {
	n := &model.Notification{
		UserID:            userID,
		Title:             title,
		Message:           message,
		Type:              typ,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.log.Errorf("notify user %d: %v", userID, err)
	}
}

// NotifyAll dispatches a broadcast notification.
func (s *NotificationService) NotifyAll(ctx context.Context, title, message, typ, entityType string, entityID uint64) {
	n := &model.Notification{
		Broadcast:         true,
		Title:             title,
		Message:           message,
		Type:              typ,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.log.Errorf("notify all: %v", err)
	}
}

// Send creates a manually composed notification on behalf of an admin.
// Broadcast when userID is zero.
func (s *NotificationService) Send(ctx context.Context, adminID, userID uint64, title, message, typ string) (*model.Notification, error) {
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if message == "" {
		return nil, invalid("message", "is required")
	}
	if typ == "" {
		typ = model.NotifyInfo
	}
	entityType := "admin"
	n := &model.Notification{
		UserID:            userID,
		Broadcast:         userID == 0,
		Title:             title,
		Message:           message,
		Type:              typ,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &adminID,
	}
	if userID != 0 {
		if _, err := s.repo.GetUser(ctx, s.repo.DB(ctx), userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListMine returns the user's notifications including broadcasts.
func (s *NotificationService) ListMine(ctx context.Context, userID uint64, unreadOnly bool) ([]model.Notification, error) {
	return s.repo.ListUserNotifications(ctx, userID, unreadOnly)
}

// MarkRead flags one notification read; only the addressee may do it.
func (s *NotificationService) MarkRead(ctx context.Context, id, requesterID uint64) (*model.Notification, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !n.Broadcast && n.UserID != requesterID {
		return nil, ErrForbidden
	}
	if err := s.repo.MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead flags every unread direct notification of the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

// Delete removes one notification; only the addressee may do it.
func (s *NotificationService) Delete(ctx context.Context, id, requesterID uint64) error {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !n.Broadcast && n.UserID != requesterID {
		return ErrForbidden
	}
	return s.repo.DeleteNotification(ctx, id)
}
