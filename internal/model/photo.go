package model

import (
	"time"
)

// PhotoStatus is the review state of an uploaded proof photo.
type PhotoStatus string

const (
	PhotoPending  PhotoStatus = "pending"
	PhotoApproved PhotoStatus = "approved"
	PhotoRejected PhotoStatus = "rejected"
)

func (s PhotoStatus) IsValid() bool {
	switch s {
	case PhotoPending, PhotoApproved, PhotoRejected:
		return true
	}
	return false
}

// Photo is a proof-of-display photograph of a hoarding. Metadata is read
// from the decoded image at upload time, not trusted from the client.
type Photo struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Path         string      `json:"path"`
	Caption      string      `json:"caption,omitempty"`
	CapturedAt   time.Time   `json:"captured_at"`
	SizeBytes    int64       `json:"size_bytes"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Format       string      `json:"format" gorm:"type:varchar(10)"`
	Status       PhotoStatus `json:"status" gorm:"type:varchar(20);index"`
	HoardingID   uint        `json:"hoarding_id" gorm:"index"`
	UploaderID   uint        `json:"uploader_id" gorm:"index"`
	AssignmentID *uint       `json:"assignment_id,omitempty" gorm:"index"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
