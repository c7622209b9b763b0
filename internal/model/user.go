package model

import (
	"time"
)

// User represents a platform account. Records are deleted permanently,
// so there is no soft-delete column on any model in this service.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	Role      Role      `json:"role" gorm:"type:varchar(20);index"`
	Avatar    string    `json:"avatar,omitempty"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Location  string    `json:"location,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
