package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyPending   PropertyStatus = "pending"
	PropertySold      PropertyStatus = "sold"
	PropertyCancelled PropertyStatus = "cancelled"
)

type Property struct {
	ID          int             `gorm:"primaryKey"`
	AgentID     int             `gorm:"not null;index"` // References: users(id)
	Title       string          `gorm:"size:160;not null"`
	Description string          `gorm:"type:text"`
	Address     string          `gorm:"size:255;not null"`
	City        string          `gorm:"size:80;not null;index"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Bedrooms    int
	Bathrooms   int
	AreaSqFt    int
	Images      datatypes.JSON
	Status      PropertyStatus `gorm:"size:16;not null;default:available;index"`
	CreatedAt   int64          `gorm:"autoCreateTime:milli"`
	UpdatedAt   int64          `gorm:"autoUpdateTime:milli"`

	// Relations
	Agent User `gorm:"foreignKey:AgentID;references:ID"`
}
