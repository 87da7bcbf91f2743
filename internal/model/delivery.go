package model

import "time"

// NotificationDelivery is the audit row for one forwarding attempt.
type NotificationDelivery struct {
	ID          uint   `gorm:"primaryKey"`
	OrderNumber string `gorm:"size:64;index;not null"`
	Status      string `gorm:"size:16;index;not null"` // DELIVERED, SKIPPED, FAILED
	Reason      string `gorm:"size:64"`
	Error       string `gorm:"type:text"`
	CreatedAt   time.Time
}
