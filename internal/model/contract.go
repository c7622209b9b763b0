package model

import (
	"time"
)

// ContractStatus is the lifecycle state of a rental contract.
type ContractStatus string

const (
	ContractPending   ContractStatus = "pending"
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractCancelled ContractStatus = "cancelled"
)

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractPending, ContractActive, ContractCompleted, ContractCancelled:
		return true
	}
	return false
}

// Contract binds a client to rent a hoarding for a date range.
// Number is assigned once at creation.
type Contract struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Number      string         `json:"number" gorm:"type:varchar(20);uniqueIndex"`
	HoardingID  uint           `json:"hoarding_id" gorm:"index"`
	ClientID    uint           `json:"client_id" gorm:"index"`
	OwnerID     uint           `json:"owner_id" gorm:"index"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	TotalAmount float64        `json:"total_amount"`
	Status      ContractStatus `json:"status" gorm:"type:varchar(20);index"`
	Terms       string         `json:"terms,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
