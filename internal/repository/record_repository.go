package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/petnice/clinic-dashboard/internal/clinicapi"
	"github.com/petnice/clinic-dashboard/internal/domain"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// Clinic API collection paths.
const (
	OwnersPath       = "/api/owners"
	PatientsPath     = "/api/patients"
	AppointmentsPath = "/api/appointments"
	UsersPath        = "/api/user"
)

// RecordRepository is CRUD access to one remote collection. Every call carries the
// caller's session token; the API owns the data.
type RecordRepository[T domain.Record] interface {
	Resource() string
	List(ctx context.Context, token string) ([]T, error)
	Create(ctx context.Context, token string, payload any) error
	Update(ctx context.Context, token, id string, payload any) error
	Delete(ctx context.Context, token, id string) error
}

type remoteRepository[T domain.Record] struct {
	client   *clinicapi.Client
	resource string
	path     string
}

// NewRemoteRepository returns a repository over the collection at path.
func NewRemoteRepository[T domain.Record](client *clinicapi.Client, resource, path string) RecordRepository[T] {
	return &remoteRepository[T]{client: client, resource: resource, path: path}
}

func NewOwnerRepository(client *clinicapi.Client) RecordRepository[domain.Owner] {
	return NewRemoteRepository[domain.Owner](client, "owners", OwnersPath)
}

func NewPatientRepository(client *clinicapi.Client) RecordRepository[domain.Patient] {
	return NewRemoteRepository[domain.Patient](client, "patients", PatientsPath)
}

func NewAppointmentRepository(client *clinicapi.Client) RecordRepository[domain.Appointment] {
	return NewRemoteRepository[domain.Appointment](client, "appointments", AppointmentsPath)
}

// NewMedicalRecordRepository uses the configured records path.
func NewMedicalRecordRepository(client *clinicapi.Client) RecordRepository[domain.MedicalRecord] {
	return NewRemoteRepository[domain.MedicalRecord](client, "medicalrecords", client.RecordsPath)
}

func NewUserRepository(client *clinicapi.Client) RecordRepository[domain.User] {
	return NewRemoteRepository[domain.User](client, "users", UsersPath)
}

func (r *remoteRepository[T]) Resource() string {
	return r.resource
}

// List accepts either a bare JSON array or an object wrapping it in `data`.
func (r *remoteRepository[T]) List(ctx context.Context, token string) ([]T, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, clinicapi.Call{
		Resource: r.resource,
		Method:   http.MethodGet,
		Path:     r.path,
		Token:    token,
	}, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("decode %s list: %w", r.resource, err))
		}
		raw = envelope.Data
	}

	records := []T{}
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decode %s list: %w", r.resource, err))
	}
	return records, nil
}

func (r *remoteRepository[T]) Create(ctx context.Context, token string, payload any) error {
	return r.client.Do(ctx, clinicapi.Call{
		Resource: r.resource,
		Method:   http.MethodPost,
		Path:     r.path,
		Token:    token,
		Body:     payload,
	}, nil)
}

func (r *remoteRepository[T]) Update(ctx context.Context, token, id string, payload any) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	return r.client.Do(ctx, clinicapi.Call{
		Resource: r.resource,
		Method:   http.MethodPut,
		Path:     path,
		Token:    token,
		Body:     payload,
	}, nil)
}

func (r *remoteRepository[T]) Delete(ctx context.Context, token, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	return r.client.Do(ctx, clinicapi.Call{
		Resource: r.resource,
		Method:   http.MethodDelete,
		Path:     path,
		Token:    token,
	}, nil)
}

func (r *remoteRepository[T]) itemPath(id string) (string, error) {
	if id == "" {
		return "", apperrors.NewValidationError("record id is required", nil)
	}
	return r.path + "/" + url.PathEscape(id), nil
}
