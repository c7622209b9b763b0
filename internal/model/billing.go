package model

import (
	"time"
)

// PaymentStatus is the payment state of an invoice.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

// Billing is a payment request (invoice) tied to a contract.
// InvoiceNumber is unique and assigned once at creation.
type Billing struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	InvoiceNumber string        `json:"invoice_number" gorm:"type:varchar(20);uniqueIndex"`
	ContractID    uint          `json:"contract_id" gorm:"index"`
	ClientID      uint          `json:"client_id" gorm:"index"`
	OwnerID       uint          `json:"owner_id" gorm:"index"`
	Amount        float64       `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);index"`
	DueDate       time.Time     `json:"due_date"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty" gorm:"type:varchar(30)"`
	TransactionID string        `json:"transaction_id,omitempty" gorm:"type:varchar(100)"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
