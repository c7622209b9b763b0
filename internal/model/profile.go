package model

import (
	"time"
)

// ProfileStatus is the activation state of a role profile.
type ProfileStatus string

const (
	ProfileActive   ProfileStatus = "active"
	ProfileInactive ProfileStatus = "inactive"
)

// PhotographerProfile extends a photographer user. One profile per user,
// created together with the account.
type PhotographerProfile struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	UserID            uint          `json:"user_id" gorm:"uniqueIndex"`
	Status            ProfileStatus `json:"status" gorm:"type:varchar(20)"`
	Bio               string        `json:"bio,omitempty"`
	AssignedHoardings int           `json:"assigned_hoardings"`
	PhotosUploaded    int           `json:"photos_uploaded"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ClientProfile extends a client user. One profile per user.
type ClientProfile struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	UserID         uint          `json:"user_id" gorm:"uniqueIndex"`
	ContactPerson  string        `json:"contact_person,omitempty" gorm:"type:varchar(100)"`
	Status         ProfileStatus `json:"status" gorm:"type:varchar(20)"`
	HoardingsCount int           `json:"hoardings_count"`
	ContractsCount int           `json:"contracts_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
