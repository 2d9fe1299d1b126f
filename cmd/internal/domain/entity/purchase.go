package entity

import "github.com/shopspring/decimal"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type Purchase struct {
	ID            int             `gorm:"primaryKey"`
	UserID        int             `gorm:"not null;index"` // References: users(id)
	PropertyID    int             `gorm:"not null;index"` // References: properties(id)
	AuctionID     *int            // References: auctions(id)
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status        PurchaseStatus  `gorm:"size:16;not null;default:pending"`
	CompletedAt   *int64
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`

	// Relations
	Property Property `gorm:"foreignKey:PropertyID;references:ID"`
}
