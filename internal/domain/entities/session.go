package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a consultation session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is the consultation aggregate a recording belongs to.
// Owned by an external subsystem; this service only reads it to guard
// recording start.
type Session struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PatientID        *uuid.UUID    `json:"patient_id,omitempty" gorm:"type:uuid"`
	PractitionerName *string       `json:"practitioner_name,omitempty" gorm:"type:varchar(255)"`
	VisitType        *string       `json:"visit_type,omitempty" gorm:"type:varchar(50)"`
	Status           SessionStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	StartedAt        time.Time     `json:"started_at" gorm:"not null;default:now()"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "sessions"
}

// IsActive checks if the session can accept new recordings
func (s *Session) IsActive() bool {
	if s == nil {
		return false
	}
	return s.Status == SessionStatusActive
}
