package domain

import (
	"bytes"
	"strconv"
)

// User is a staff account of the clinic.
type User struct {
	ID       string     `json:"_id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Role     Role       `json:"role"`
	IsActive ActiveFlag `json:"is_active"`
}

func (u User) RecordID() string { return u.ID }

func (u User) SearchText() string {
	return u.FullName + " " + u.Email + " " + string(u.Role)
}

// ActiveFlag is sent as 1/0 but some API versions answer with true/false.
type ActiveFlag int

func (f *ActiveFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*f = 1
		return nil
	case "false", "null", "":
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	if n != 0 {
		n = 1
	}
	*f = ActiveFlag(n)
	return nil
}

// Bool reports whether the account is active.
func (f ActiveFlag) Bool() bool { return f != 0 }
