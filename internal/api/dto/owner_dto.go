package dto

import (
	"strings"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

// OwnerForm is the owner create/update form.
type OwnerForm struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
	Phone     string `form:"phone"`
	Address   string `form:"address"`
}

// OwnerFormFrom prefills the form for editing.
func OwnerFormFrom(o domain.Owner) *OwnerForm {
	return &OwnerForm{
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Email:     o.Email,
		Phone:     o.Phone,
		Address:   o.Address,
	}
}

func (f *OwnerForm) Validate(bool) error {
	errs := FieldErrors{}
	errs.require("first_name", f.FirstName)
	errs.require("last_name", f.LastName)
	if email := trim(f.Email); email != "" && !strings.Contains(email, "@") {
		errs["email"] = "invalid email"
	}
	return errs.Err()
}

func (f *OwnerForm) Payload(bool) map[string]any {
	return map[string]any{
		"first_name": trim(f.FirstName),
		"last_name":  trim(f.LastName),
		"email":      trim(f.Email),
		"phone":      trim(f.Phone),
		"address":    trim(f.Address),
	}
}

func (f *OwnerForm) Values() map[string]string {
	return map[string]string{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"email":      f.Email,
		"phone":      f.Phone,
		"address":    f.Address,
	}
}
