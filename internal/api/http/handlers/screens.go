package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/petnice/clinic-dashboard/internal/api/dto"
	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/domain"
	"github.com/petnice/clinic-dashboard/internal/service"
)

const cellTimeLayout = "2006-01-02 15:04"

// ScreenServices are the record services behind the five screens.
type ScreenServices struct {
	Owners         *service.RecordService[domain.Owner]
	Patients       *service.RecordService[domain.Patient]
	Appointments   *service.RecordService[domain.Appointment]
	MedicalRecords *service.RecordService[domain.MedicalRecord]
	Users          *service.RecordService[domain.User]
}

// Screens groups the resource screens of the dashboard.
type Screens struct {
	Owners         *ResourceScreen[domain.Owner]
	Patients       *ResourceScreen[domain.Patient]
	Appointments   *ResourceScreen[domain.Appointment]
	MedicalRecords *ResourceScreen[domain.MedicalRecord]
	Users          *ResourceScreen[domain.User]
}

// NewScreens wires every screen to its service. Patients look up owners; appointments
// and medical records look up patients.
func NewScreens(svcs ScreenServices, deps ScreenDeps) *Screens {
	patientLookup := LookupFrom(svcs.Patients, func(p domain.Patient) string { return p.Name })
	return &Screens{
		Owners:         NewResourceScreen(ownerSchema(), svcs.Owners, deps),
		Patients:       NewResourceScreen(patientSchema(LookupFrom(svcs.Owners, domain.Owner.FullName)), svcs.Patients, deps),
		Appointments:   NewResourceScreen(appointmentSchema(patientLookup), svcs.Appointments, deps),
		MedicalRecords: NewResourceScreen(medicalRecordSchema(patientLookup), svcs.MedicalRecords, deps),
		Users:          NewResourceScreen(userSchema(), svcs.Users, deps),
	}
}

// Register mounts all screens.
func (s *Screens) Register(router fiber.Router) {
	s.Owners.Register(router)
	s.Patients.Register(router)
	s.Appointments.Register(router)
	s.MedicalRecords.Register(router)
	s.Users.Register(router)
}

// Cards lists the screens in dashboard order.
func (s *Screens) Cards() []Card {
	return []Card{
		s.Owners.Card(),
		s.Patients.Card(),
		s.Appointments.Card(),
		s.MedicalRecords.Card(),
		s.Users.Card(),
	}
}

// LookupFrom turns the list of another resource into select options.
func LookupFrom[L domain.Record](svc *service.RecordService[L], label func(L) string) LookupFunc {
	return func(ctx context.Context, principal *auth.Principal) ([]Option, error) {
		records, err := svc.List(ctx, principal)
		if err != nil {
			return nil, err
		}
		options := make([]Option, 0, len(records))
		for _, r := range records {
			text := label(r)
			if text == "" {
				text = r.RecordID()
			}
			options = append(options, Option{Value: r.RecordID(), Label: text})
		}
		return options, nil
	}
}

var (
	sexOptions = []Option{
		{Value: string(domain.SexUnknown), Label: "Unknown"},
		{Value: string(domain.SexMale), Label: "Male"},
		{Value: string(domain.SexFemale), Label: "Female"},
	}
	statusOptions = []Option{
		{Value: string(domain.VisitPending), Label: "Pending"},
		{Value: string(domain.VisitCompleted), Label: "Completed"},
		{Value: string(domain.VisitCancelled), Label: "Cancelled"},
	}
	roleOptions = []Option{
		{Value: string(domain.RoleStaff), Label: "Staff"},
		{Value: string(domain.RoleAdmin), Label: "Admin"},
	}
	activeOptions = []Option{
		{Value: "1", Label: "Active"},
		{Value: "0", Label: "Inactive"},
	}
)

func ownerSchema() ScreenSchema[domain.Owner] {
	return ScreenSchema[domain.Owner]{
		Name:     "owners",
		Title:    "Owners",
		Singular: "owner",
		Fields: []Field{
			{Name: "first_name", Label: "First name", Type: "text", Required: true},
			{Name: "last_name", Label: "Last name", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "email"},
			{Name: "phone", Label: "Phone", Type: "tel"},
			{Name: "address", Label: "Address", Type: "text"},
		},
		Columns: []Column[domain.Owner]{
			{Label: "Name", Value: func(o domain.Owner, _ map[string]string) string { return o.FullName() }},
			{Label: "Email", Value: func(o domain.Owner, _ map[string]string) string { return o.Email }},
			{Label: "Phone", Value: func(o domain.Owner, _ map[string]string) string { return o.Phone }},
			{Label: "Address", Value: func(o domain.Owner, _ map[string]string) string { return o.Address }},
		},
		NewForm:  func() dto.Form { return &dto.OwnerForm{} },
		FormFrom: func(o domain.Owner) dto.Form { return dto.OwnerFormFrom(o) },
		Label:    domain.Owner.FullName,
	}
}

func patientSchema(owners LookupFunc) ScreenSchema[domain.Patient] {
	return ScreenSchema[domain.Patient]{
		Name:     "patients",
		Title:    "Patients",
		Singular: "patient",
		Fields: []Field{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "species", Label: "Species", Type: "text", Required: true},
			{Name: "breed", Label: "Breed", Type: "text"},
			{Name: "sex", Label: "Sex", Type: "select", Options: sexOptions, NoBlank: true},
			{Name: "birth_date", Label: "Birth date", Type: "date"},
			{Name: "weight_kg", Label: "Weight (kg)", Type: "number", Step: "0.01"},
			{Name: "color", Label: "Color", Type: "text"},
			{Name: "microchip_id", Label: "Microchip", Type: "text"},
			{Name: "notes", Label: "Notes", Type: "textarea"},
			{Name: "owner", Label: "Owner", Type: "select", Required: true, Lookup: true},
		},
		Columns: []Column[domain.Patient]{
			{Label: "Name", Value: func(p domain.Patient, _ map[string]string) string { return p.Name }},
			{Label: "Species", Value: func(p domain.Patient, _ map[string]string) string { return p.Species }},
			{Label: "Breed", Value: func(p domain.Patient, _ map[string]string) string { return p.Breed }},
			{Label: "Sex", Value: func(p domain.Patient, _ map[string]string) string { return string(p.Sex) }},
			{Label: "Weight (kg)", Value: func(p domain.Patient, _ map[string]string) string { return weightCell(p.WeightKg) }},
			{Label: "Owner", Value: func(p domain.Patient, lookup map[string]string) string { return refCell(p.Owner, lookup) }},
		},
		NewForm:  func() dto.Form { return &dto.PatientForm{} },
		FormFrom: func(p domain.Patient) dto.Form { return dto.PatientFormFrom(p) },
		Label:    func(p domain.Patient) string { return p.Name },
		Lookup:   owners,
	}
}

func appointmentSchema(patients LookupFunc) ScreenSchema[domain.Appointment] {
	return ScreenSchema[domain.Appointment]{
		Name:     "appointments",
		Title:    "Appointments",
		Singular: "appointment",
		Fields: []Field{
			{Name: "patient", Label: "Patient", Type: "select", Required: true, Lookup: true},
			{Name: "scheduled_for", Label: "Scheduled for (UTC)", Type: "datetime-local"},
			{Name: "status", Label: "Status", Type: "select", Options: statusOptions, NoBlank: true},
			{Name: "notes", Label: "Notes", Type: "textarea"},
		},
		Columns: []Column[domain.Appointment]{
			{Label: "Patient", Value: func(a domain.Appointment, lookup map[string]string) string { return refCell(a.Patient, lookup) }},
			{Label: "Scheduled for", Value: func(a domain.Appointment, _ map[string]string) string { return timeCell(a.ScheduledFor) }},
			{Label: "Status", Value: func(a domain.Appointment, _ map[string]string) string { return string(a.Status) }},
			{Label: "Notes", Value: func(a domain.Appointment, _ map[string]string) string { return a.Notes }},
		},
		NewForm:  func() dto.Form { return &dto.AppointmentForm{} },
		FormFrom: func(a domain.Appointment) dto.Form { return dto.AppointmentFormFrom(a) },
		Label: func(a domain.Appointment) string {
			return refCell(a.Patient, nil) + " " + timeCell(a.ScheduledFor)
		},
		Lookup: patients,
	}
}

func medicalRecordSchema(patients LookupFunc) ScreenSchema[domain.MedicalRecord] {
	return ScreenSchema[domain.MedicalRecord]{
		Name:     "medicalrecords",
		Title:    "Medical records",
		Singular: "medical record",
		Fields: []Field{
			{Name: "patient", Label: "Patient", Type: "select", Required: true, Lookup: true},
			{Name: "record_date", Label: "Date (UTC)", Type: "datetime-local"},
			{Name: "status", Label: "Status", Type: "select", Options: statusOptions, NoBlank: true},
			{Name: "reason", Label: "Reason", Type: "text"},
			{Name: "vet_notes", Label: "Vet notes", Type: "textarea"},
		},
		Columns: []Column[domain.MedicalRecord]{
			{Label: "Patient", Value: func(m domain.MedicalRecord, lookup map[string]string) string { return refCell(m.Patient, lookup) }},
			{Label: "Date", Value: func(m domain.MedicalRecord, _ map[string]string) string { return timeCell(m.RecordDate) }},
			{Label: "Status", Value: func(m domain.MedicalRecord, _ map[string]string) string { return string(m.Status) }},
			{Label: "Reason", Value: func(m domain.MedicalRecord, _ map[string]string) string { return m.Reason }},
		},
		NewForm:  func() dto.Form { return &dto.MedicalRecordForm{} },
		FormFrom: func(m domain.MedicalRecord) dto.Form { return dto.MedicalRecordFormFrom(m) },
		Label: func(m domain.MedicalRecord) string {
			return refCell(m.Patient, nil) + " " + timeCell(m.RecordDate)
		},
		Lookup: patients,
	}
}

func userSchema() ScreenSchema[domain.User] {
	return ScreenSchema[domain.User]{
		Name:     "users",
		Title:    "Users",
		Singular: "user",
		Fields: []Field{
			{Name: "full_name", Label: "Full name", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "password", Label: "Password", Type: "password"},
			{Name: "role", Label: "Role", Type: "select", Options: roleOptions, NoBlank: true},
			{Name: "is_active", Label: "Status", Type: "select", Options: activeOptions, NoBlank: true},
		},
		Columns: []Column[domain.User]{
			{Label: "Full name", Value: func(u domain.User, _ map[string]string) string { return u.FullName }},
			{Label: "Email", Value: func(u domain.User, _ map[string]string) string { return u.Email }},
			{Label: "Role", Value: func(u domain.User, _ map[string]string) string { return string(u.Role) }},
			{Label: "Active", Value: func(u domain.User, _ map[string]string) string { return yesNo(u.IsActive.Bool()) }},
		},
		NewForm:  func() dto.Form { return &dto.UserForm{} },
		FormFrom: func(u domain.User) dto.Form { return dto.UserFormFrom(u) },
		Label:    func(u domain.User) string { return u.FullName },
	}
}

// refCell prefers the populated label, then the lookup, then the bare id.
func refCell(ref domain.Ref, lookup map[string]string) string {
	if label := ref.Label(); label != "" {
		return label
	}
	if label, ok := lookup[ref.ID]; ok {
		return label
	}
	return ref.ID
}

func timeCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(cellTimeLayout)
}

func weightCell(w *float64) string {
	if w == nil {
		return ""
	}
	return strconv.FormatFloat(*w, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
