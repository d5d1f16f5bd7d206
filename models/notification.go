package models

import "time"

// Notification is a single broadcast record visible to every user.
// Read tracking lives in NotificationRead, not here.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // e.g. "promo", "order_status", "system"
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// NotificationRead records one user's acknowledgement of one notification.
// Absence of a row means "unread, never touched". Rows are created lazily
// on the first read interaction and never deleted.
type NotificationRead struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	NotificationID uint       `gorm:"uniqueIndex:idx_notification_user" json:"notification_id"`
	UserID         string     `gorm:"uniqueIndex:idx_notification_user" json:"user_id"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
}
