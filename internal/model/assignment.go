package model

import (
	"time"
)

// AssignmentStatus is the workflow state of a photography assignment.
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentAssigned, AssignmentInProgress, AssignmentCompleted, AssignmentCancelled:
		return true
	}
	return false
}

// Assignment directs a photographer to photograph a hoarding by a due date.
type Assignment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	HoardingID     uint             `json:"hoarding_id" gorm:"index"`
	PhotographerID uint             `json:"photographer_id" gorm:"index"`
	AssignedByID   uint             `json:"assigned_by_id" gorm:"index"`
	DueDate        time.Time        `json:"due_date"`
	Notes          string           `json:"notes,omitempty"`
	Status         AssignmentStatus `json:"status" gorm:"type:varchar(20);index"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
