package entity

import "gorm.io/datatypes"

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID         int               `gorm:"primaryKey"`
	ClientID   int               `gorm:"not null;index"` // References: users(id)
	AgentID    int               `gorm:"not null;index"` // References: users(id)
	PropertyID int               `gorm:"not null"`       // References: properties(id)
	Date       string            `gorm:"size:10;not null;index"`
	StartTime  datatypes.Time    `gorm:"not null"`
	EndTime    datatypes.Time    `gorm:"not null"`
	Location   string            `gorm:"size:255;not null"` // Copied from the property at booking time
	Status     AppointmentStatus `gorm:"size:16;not null;default:scheduled"`
	Notes      *string
	CreatedAt  int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt  int64 `gorm:"autoUpdateTime:milli"`

	// Relations
	Client   User     `gorm:"foreignKey:ClientID;references:ID"`
	Agent    User     `gorm:"foreignKey:AgentID;references:ID"`
	Property Property `gorm:"foreignKey:PropertyID;references:ID"`
}
