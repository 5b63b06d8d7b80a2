package dto

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	FullName string `form:"full_name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Validate reports missing registration fields.
func (r *RegisterRequest) Validate() error {
	errs := FieldErrors{}
	errs.require("full_name", r.FullName)
	errs.require("email", r.Email)
	errs.require("password", r.Password)
	return errs.Err()
}
