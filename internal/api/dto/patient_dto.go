package dto

import (
	"strconv"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

// PatientForm is the patient create/update form.
type PatientForm struct {
	Name        string `form:"name"`
	Species     string `form:"species"`
	Breed       string `form:"breed"`
	Sex         string `form:"sex"`
	BirthDate   string `form:"birth_date"`
	WeightKg    string `form:"weight_kg"`
	Color       string `form:"color"`
	MicrochipID string `form:"microchip_id"`
	Notes       string `form:"notes"`
	Owner       string `form:"owner"`
}

// PatientFormFrom prefills the form for editing.
func PatientFormFrom(p domain.Patient) *PatientForm {
	return &PatientForm{
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         string(p.Sex),
		BirthDate:   formatTime(p.BirthDate, DateLayout),
		WeightKg:    formatFloat(p.WeightKg),
		Color:       p.Color,
		MicrochipID: p.MicrochipID,
		Notes:       p.Notes,
		Owner:       p.Owner.ID,
	}
}

func (f *PatientForm) Validate(bool) error {
	errs := FieldErrors{}
	errs.require("name", f.Name)
	errs.require("species", f.Species)
	errs.require("owner", f.Owner)
	errs.oneOf("sex", trim(f.Sex), string(domain.SexUnknown), string(domain.SexMale), string(domain.SexFemale))
	errs.layout("birth_date", trim(f.BirthDate), DateLayout)
	if w := trim(f.WeightKg); w != "" {
		if v, err := strconv.ParseFloat(w, 64); err != nil || v < 0 {
			errs["weight_kg"] = "must be a positive number"
		}
	}
	return errs.Err()
}

// Payload converts weight to a number and birth date to a timestamp; blanks become null.
func (f *PatientForm) Payload(bool) map[string]any {
	var weight any
	if v, err := strconv.ParseFloat(trim(f.WeightKg), 64); err == nil {
		weight = v
	}
	return map[string]any{
		"name":         trim(f.Name),
		"species":      trim(f.Species),
		"breed":        trim(f.Breed),
		"sex":          orDefault(f.Sex, string(domain.SexUnknown)),
		"birth_date":   timeValue(f.BirthDate, DateLayout),
		"weight_kg":    weight,
		"color":        trim(f.Color),
		"microchip_id": trim(f.MicrochipID),
		"notes":        trim(f.Notes),
		"owner":        trim(f.Owner),
	}
}

func (f *PatientForm) Values() map[string]string {
	return map[string]string{
		"name":         f.Name,
		"species":      f.Species,
		"breed":        f.Breed,
		"sex":          orDefault(f.Sex, string(domain.SexUnknown)),
		"birth_date":   f.BirthDate,
		"weight_kg":    f.WeightKg,
		"color":        f.Color,
		"microchip_id": f.MicrochipID,
		"notes":        f.Notes,
		"owner":        f.Owner,
	}
}
