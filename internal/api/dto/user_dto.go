package dto

import (
	"strings"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

// UserForm is the staff account create/update form.
type UserForm struct {
	FullName string `form:"full_name"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Role     string `form:"role"`
	IsActive string `form:"is_active"`
}

// UserFormFrom prefills the form for editing. The password is never echoed.
func UserFormFrom(u domain.User) *UserForm {
	active := "0"
	if u.IsActive.Bool() {
		active = "1"
	}
	return &UserForm{
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
		IsActive: active,
	}
}

// Validate requires a password only when creating.
func (f *UserForm) Validate(creating bool) error {
	errs := FieldErrors{}
	errs.require("full_name", f.FullName)
	errs.require("email", f.Email)
	if creating {
		errs.require("password", f.Password)
	}
	errs.oneOf("role", strings.ToUpper(trim(f.Role)), string(domain.RoleAdmin), string(domain.RoleStaff))
	errs.oneOf("is_active", trim(f.IsActive), "1", "0")
	return errs.Err()
}

// Payload sends is_active as 1/0 and leaves the password out when it is blank.
func (f *UserForm) Payload(bool) map[string]any {
	active := 1
	if trim(f.IsActive) == "0" {
		active = 0
	}
	payload := map[string]any{
		"full_name": trim(f.FullName),
		"email":     trim(f.Email),
		"role":      strings.ToUpper(orDefault(f.Role, string(domain.RoleStaff))),
		"is_active": active,
	}
	if f.Password != "" {
		payload["password"] = f.Password
	}
	return payload
}

func (f *UserForm) Values() map[string]string {
	return map[string]string{
		"full_name": f.FullName,
		"email":     f.Email,
		"role":      strings.ToUpper(orDefault(f.Role, string(domain.RoleStaff))),
		"is_active": orDefault(f.IsActive, "1"),
	}
}
