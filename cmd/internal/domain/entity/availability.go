package entity

import "gorm.io/datatypes"

// AgentAvailability is either a weekly template (Date == nil, IsAvailable) or a
// blocked override for one date. Overrides created by a booking carry the
// appointment id.
type AgentAvailability struct {
	ID            int            `gorm:"primaryKey"`
	AgentID       int            `gorm:"not null;index:idx_availability_agent_date"` // References: users(id)
	DayOfWeek     string         `gorm:"size:10;not null"`
	Date          *string        `gorm:"size:10;index:idx_availability_agent_date"`
	StartTime     datatypes.Time `gorm:"not null"`
	EndTime       datatypes.Time `gorm:"not null"`
	IsAvailable   bool           `gorm:"not null"`
	AppointmentID *int           // References: appointments(id)
	Note          *string
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}

func (AgentAvailability) TableName() string {
	return "agent_availability"
}

func (a *AgentAvailability) IsTemplate() bool {
	return a.Date == nil
}
