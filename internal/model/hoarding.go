package model

import (
	"time"
)

// HoardingStatus is the lifecycle state of a hoarding structure.
type HoardingStatus string

const (
	HoardingActive      HoardingStatus = "active"
	HoardingInactive    HoardingStatus = "inactive"
	HoardingMaintenance HoardingStatus = "maintenance"
)

func (s HoardingStatus) IsValid() bool {
	switch s {
	case HoardingActive, HoardingInactive, HoardingMaintenance:
		return true
	}
	return false
}

// Hoarding represents a physical billboard available for rental.
// Number is assigned once at creation and never reassigned.
type Hoarding struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Number    string          `json:"number" gorm:"type:varchar(20);uniqueIndex"`
	Name      string          `json:"name" gorm:"type:varchar(100)"`
	Address   string          `json:"address"`
	City      string          `json:"city" gorm:"type:varchar(100);index"`
	State     string          `json:"state" gorm:"type:varchar(100)"`
	Country   string          `json:"country" gorm:"type:varchar(100)"`
	ZipCode   string          `json:"zip_code" gorm:"type:varchar(20)"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	SizeUnit  string          `json:"size_unit" gorm:"type:varchar(10)"`
	DailyRate float64         `json:"daily_rate"`
	Status    HoardingStatus  `json:"status" gorm:"type:varchar(20);index"`
	Images    []HoardingImage `json:"images" gorm:"foreignKey:HoardingID"`
	OwnerID   uint            `json:"owner_id" gorm:"index"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HoardingImage is one stored image path of a hoarding. Position keeps
// the upload order stable across reads.
type HoardingImage struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	HoardingID uint   `json:"hoarding_id" gorm:"index"`
	Position   int    `json:"position"`
	Path       string `json:"path"`
}
