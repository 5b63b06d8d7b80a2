package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Ref is a reference to another record. The clinic API sends either the bare id
// or the populated record, so both shapes decode into Ref.
type Ref struct {
	ID        string `json:"_id"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// UnmarshalJSON accepts a string id, a populated object or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// MarshalJSON sends only the id back to the API.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Label is the human readable name of the referenced record.
func (r Ref) Label() string {
	full := strings.TrimSpace(r.FirstName + " " + r.LastName)
	switch {
	case full != "":
		return full
	case r.Name != "":
		return r.Name
	default:
		return ""
	}
}
