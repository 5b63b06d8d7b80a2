package dto

import (
	"github.com/petnice/clinic-dashboard/internal/domain"
)

var visitStatuses = []string{
	string(domain.VisitPending),
	string(domain.VisitCompleted),
	string(domain.VisitCancelled),
}

// AppointmentForm is the appointment create/update form.
type AppointmentForm struct {
	Patient      string `form:"patient"`
	ScheduledFor string `form:"scheduled_for"`
	Status       string `form:"status"`
	Notes        string `form:"notes"`
}

// AppointmentFormFrom prefills the form for editing.
func AppointmentFormFrom(a domain.Appointment) *AppointmentForm {
	return &AppointmentForm{
		Patient:      a.Patient.ID,
		ScheduledFor: formatTime(a.ScheduledFor, DateTimeLayout),
		Status:       string(a.Status),
		Notes:        a.Notes,
	}
}

func (f *AppointmentForm) Validate(bool) error {
	errs := FieldErrors{}
	errs.require("patient", f.Patient)
	errs.layout("scheduled_for", trim(f.ScheduledFor), DateTimeLayout)
	errs.oneOf("status", trim(f.Status), visitStatuses...)
	return errs.Err()
}

func (f *AppointmentForm) Payload(bool) map[string]any {
	return map[string]any{
		"patient":       trim(f.Patient),
		"scheduled_for": timeValue(f.ScheduledFor, DateTimeLayout),
		"status":        orDefault(f.Status, string(domain.VisitPending)),
		"notes":         trim(f.Notes),
	}
}

func (f *AppointmentForm) Values() map[string]string {
	return map[string]string{
		"patient":       f.Patient,
		"scheduled_for": f.ScheduledFor,
		"status":        orDefault(f.Status, string(domain.VisitPending)),
		"notes":         f.Notes,
	}
}

// MedicalRecordForm is the medical record create/update form.
type MedicalRecordForm struct {
	Patient    string `form:"patient"`
	RecordDate string `form:"record_date"`
	Status     string `form:"status"`
	Reason     string `form:"reason"`
	VetNotes   string `form:"vet_notes"`
}

// MedicalRecordFormFrom prefills the form for editing.
func MedicalRecordFormFrom(m domain.MedicalRecord) *MedicalRecordForm {
	return &MedicalRecordForm{
		Patient:    m.Patient.ID,
		RecordDate: formatTime(m.RecordDate, DateTimeLayout),
		Status:     string(m.Status),
		Reason:     m.Reason,
		VetNotes:   m.VetNotes,
	}
}

func (f *MedicalRecordForm) Validate(bool) error {
	errs := FieldErrors{}
	errs.require("patient", f.Patient)
	errs.layout("record_date", trim(f.RecordDate), DateTimeLayout)
	errs.oneOf("status", trim(f.Status), visitStatuses...)
	return errs.Err()
}

func (f *MedicalRecordForm) Payload(bool) map[string]any {
	return map[string]any{
		"patient":     trim(f.Patient),
		"record_date": timeValue(f.RecordDate, DateTimeLayout),
		"status":      orDefault(f.Status, string(domain.VisitPending)),
		"reason":      trim(f.Reason),
		"vet_notes":   trim(f.VetNotes),
	}
}

func (f *MedicalRecordForm) Values() map[string]string {
	return map[string]string{
		"patient":     f.Patient,
		"record_date": f.RecordDate,
		"status":      orDefault(f.Status, string(domain.VisitPending)),
		"reason":      f.Reason,
		"vet_notes":   f.VetNotes,
	}
}
