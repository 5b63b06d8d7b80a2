package clinicapi

import (
	"context"
	"net/http"

	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// LoginUser is the profile returned next to the token.
type LoginUser struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// DisplayName prefers name over full_name.
func (u *LoginUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.FullName
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  *LoginUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. A rejection of any status becomes an
// authentication error carrying the server message; transport failures stay network errors.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	call := Call{
		Resource: "auth",
		Method:   http.MethodPost,
		Path:     "/api/auth/login",
		Body:     loginRequest{Email: email, Password: password},
	}
	status, payload, err := c.exchange(ctx, call)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		c.record(call, "rejected")
		return nil, apperrors.NewAuthenticationError(errorMessage(payload))
	}
	c.record(call, "ok")

	var resp LoginResponse
	if err := decode(call, payload, &resp); err != nil || resp.Token == "" {
		return nil, apperrors.NewAuthenticationError("")
	}
	return &resp, nil
}

// Register creates a staff account. It does not sign the caller in.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	call := Call{
		Resource: "auth",
		Method:   http.MethodPost,
		Path:     c.RegisterPath,
		Body:     registerRequest{Name: name, FullName: name, Email: email, Password: password},
	}
	status, payload, err := c.exchange(ctx, call)
	if err != nil {
		return err
	}
	if !success(status) {
		c.record(call, "rejected")
		return apperrors.NewRegistrationError(errorMessage(payload))
	}
	c.record(call, "ok")
	return nil
}
