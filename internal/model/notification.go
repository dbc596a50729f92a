package model

import "time"

// Notification types.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification is addressed to one user or, when Broadcast is set, to
// everyone. Broadcast is an explicit flag rather than a null UserID so that
// readers never infer addressing from a sentinel.
type Notification struct {
	ID                uint64    `gorm:"primaryKey" json:"id"`
	UserID            uint64    `gorm:"index" json:"userId,omitempty"`
	Broadcast         bool      `gorm:"not null;default:false" json:"broadcast"`
	Title             string    `gorm:"size:128;not null" json:"title"`
	Message           string    `gorm:"type:text;not null" json:"message"`
	Type              string    `gorm:"size:32;not null" json:"type"`
	IsRead            bool      `gorm:"not null;default:false" json:"isRead"`
	RelatedEntityType *string   `gorm:"size:32" json:"relatedEntityType,omitempty"`
	RelatedEntityID   *uint64   `json:"relatedEntityId,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
