package model

import "time"

// User stores Telegram user metadata. ID is the Telegram user id.
type User struct {
	ID           int64 `gorm:"primaryKey;autoIncrement:false"`
	Username     string
	FirstName    string
	LastName     string
	RegisteredAt time.Time `gorm:"autoCreateTime"`
}
