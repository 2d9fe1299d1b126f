package entity

import "strings"

type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            int    `gorm:"primaryKey"`
	SubUUID       string `gorm:"size:64;uniqueIndex;not null"`
	FirstName     string `gorm:"size:80;not null"`
	LastName      string `gorm:"size:80;not null"`
	Email         string `gorm:"size:255;uniqueIndex;not null"`
	Phone         *string
	Role          Role  `gorm:"size:16;not null;default:client"`
	EmailVerified bool  `gorm:"not null"`
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}

// DisplayName is the public form of a user's name: first name plus last initial.
func (u *User) DisplayName() string {
	last := strings.TrimSpace(u.LastName)
	if last == "" {
		return u.FirstName
	}
	return u.FirstName + " " + strings.ToUpper(string([]rune(last)[:1])) + "."
}
