package domain

import "strings"

// Owner is a pet owner record held by the clinic API.
type Owner struct {
	ID        string `json:"_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (o Owner) RecordID() string { return o.ID }

// FullName joins first and last name.
func (o Owner) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

func (o Owner) SearchText() string {
	return o.FirstName + " " + o.LastName + " " + o.Email
}
