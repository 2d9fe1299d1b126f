package entity

// PaymentInstrument never holds card data beyond the type and the last four digits.
type PaymentInstrument struct {
	ID        int    `gorm:"primaryKey"`
	UserID    int    `gorm:"not null;index"` // References: users(id)
	Type      string `gorm:"size:32;not null"`
	LastFour  string `gorm:"size:4;not null"`
	Verified  bool   `gorm:"not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}
