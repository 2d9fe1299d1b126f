package entity

import "github.com/shopspring/decimal"

type AuctionStatus string

const (
	AuctionActive    AuctionStatus = "active"
	AuctionEnded     AuctionStatus = "ended"
	AuctionCancelled AuctionStatus = "cancelled"
)

// Auction keeps CurrentPrice >= StartingPrice; HighestBidderID is set iff a bid exists.
type Auction struct {
	ID              int             `gorm:"primaryKey"`
	PropertyID      int             `gorm:"not null;index"` // References: properties(id)
	StartingPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CurrentPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	HighestBidderID *int            // References: users(id)
	Status          AuctionStatus   `gorm:"size:16;not null;default:active;index"`
	StartsAt        int64           `gorm:"not null"`
	EndsAt          int64           `gorm:"not null"`
	CreatedAt       int64           `gorm:"autoCreateTime:milli"`
	UpdatedAt       int64           `gorm:"autoUpdateTime:milli"`

	// Relations
	Property Property `gorm:"foreignKey:PropertyID;references:ID"`
}

type Bid struct {
	ID        int             `gorm:"primaryKey"`
	AuctionID int             `gorm:"not null;index"` // References: auctions(id)
	UserID    int             `gorm:"not null;index"` // References: users(id)
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt int64           `gorm:"autoCreateTime:milli"`

	// Relations
	Bidder User `gorm:"foreignKey:UserID;references:ID"`
}

type AuctionParticipant struct {
	AuctionID int   `gorm:"primaryKey;autoIncrement:false"`
	UserID    int   `gorm:"primaryKey;autoIncrement:false"`
	JoinedAt  int64 `gorm:"not null"`
}
