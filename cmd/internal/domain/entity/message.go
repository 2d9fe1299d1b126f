package entity

type Message struct {
	ID         int    `gorm:"primaryKey"`
	SenderID   int    `gorm:"not null;index"` // References: users(id)
	ReceiverID int    `gorm:"not null;index"` // References: users(id)
	PropertyID *int   // References: properties(id)
	Body       string `gorm:"type:text;not null"`
	ReadAt     *int64
	CreatedAt  int64 `gorm:"autoCreateTime:milli"`
}
