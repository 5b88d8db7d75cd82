package model

import "time"

const DefaultCategoryEmoji = "📁"

// Category is a user-owned label. Tasks copy the name rather than referencing the row.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_user_category_name"`
	Name      string `gorm:"not null;uniqueIndex:idx_user_category_name"`
	Emoji     string `gorm:"not null;default:📁"`
	CreatedAt time.Time
}

// Label renders the category with its emoji.
func (c Category) Label() string {
	if c.Emoji == "" {
		return DefaultCategoryEmoji + " " + c.Name
	}
	return c.Emoji + " " + c.Name
}
