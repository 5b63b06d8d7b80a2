package domain

import "time"

// MedicalRecord is an entry in a patient's clinical history.
type MedicalRecord struct {
	ID         string      `json:"_id"`
	Patient    Ref         `json:"patient"`
	RecordDate *time.Time  `json:"record_date,omitempty"`
	Status     VisitStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	VetNotes   string      `json:"vet_notes,omitempty"`
}

func (m MedicalRecord) RecordID() string { return m.ID }

func (m MedicalRecord) SearchText() string {
	return m.Patient.Label() + " " + string(m.Status)
}
