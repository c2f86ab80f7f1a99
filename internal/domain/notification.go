package domain

import "time"

const (
	NotifyTypeEmail    = "email"
	NotifyTypeTelegram = "telegram"

	NotifyStatusSent   = "sent"
	NotifyStatusFailed = "failed"
)

// Notification is an append-only delivery audit record.
type Notification struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Type      string    `gorm:"size:16;index" json:"type"`
	Recipient string    `gorm:"size:256" json:"recipient"`
	Content   string    `gorm:"type:text" json:"content"`
	Status    string    `gorm:"size:16;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
