package domain

import "time"

// VisitStatus is shared by appointments and medical records.
type VisitStatus string

const (
	VisitPending   VisitStatus = "PENDING"
	VisitCompleted VisitStatus = "COMPLETED"
	VisitCancelled VisitStatus = "CANCELLED"
)

// Appointment is a scheduled visit for a patient.
type Appointment struct {
	ID           string      `json:"_id"`
	Patient      Ref         `json:"patient"`
	ScheduledFor *time.Time  `json:"scheduled_for,omitempty"`
	Status       VisitStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
}

func (a Appointment) RecordID() string { return a.ID }

func (a Appointment) SearchText() string {
	return a.Patient.Label() + " " + string(a.Status)
}
