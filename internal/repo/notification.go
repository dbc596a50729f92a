package repo

import (
	"context"

	"github.com/ebupay/exchange-service/internal/model"
)

// CreateNotification inserts record. Runs outside the engine's database
// transaction; a failure here never rolls back financial state.
func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// GetNotification fetches by id.
func (r *Repository) GetNotification(ctx context.Context, id uint64) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListUserNotifications returns notifications addressed to the user plus
// broadcasts, newest first.
func (r *Repository) ListUserNotifications(ctx context.Context, userID uint64, unreadOnly bool) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? OR broadcast = ?", userID, true)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var ns []model.Notification
	err := q.Order("created_at desc").Find(&ns).Error
	return ns, err
}

// MarkNotificationRead sets the read flag.
func (r *Repository) MarkNotificationRead(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllNotificationsRead sets the read flag on the user's unread items.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// DeleteNotification removes record.
func (r *Repository) DeleteNotification(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Notification{}, id).Error
}
