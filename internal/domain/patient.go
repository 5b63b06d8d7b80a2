package domain

import "time"

// Sex of a patient as recorded by the clinic.
type Sex string

const (
	SexUnknown Sex = "U"
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
)

// Patient is an animal treated by the clinic.
type Patient struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Breed       string     `json:"breed,omitempty"`
	Sex         Sex        `json:"sex,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	Color       string     `json:"color,omitempty"`
	MicrochipID string     `json:"microchip_id,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Owner       Ref        `json:"owner"`
}

func (p Patient) RecordID() string { return p.ID }

func (p Patient) SearchText() string {
	return p.Name + " " + p.Species + " " + p.Owner.Label()
}
