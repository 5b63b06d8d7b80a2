package domain

import (
	"encoding/json"
	"testing"
)

func TestRefUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantID    string
		wantLabel string
	}{
		{"bare id", `{"owner":"abc123"}`, "abc123", ""},
		{"populated owner", `{"owner":{"_id":"o1","first_name":"Ana","last_name":"Ruiz"}}`, "o1", "Ana Ruiz"},
		{"populated patient", `{"owner":{"_id":"p1","name":"Firulais"}}`, "p1", "Firulais"},
		{"null", `{"owner":null}`, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Patient
			if err := json.Unmarshal([]byte(tc.payload), &p); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if p.Owner.ID != tc.wantID {
				t.Errorf("ID = %q, want %q", p.Owner.ID, tc.wantID)
			}
			if p.Owner.Label() != tc.wantLabel {
				t.Errorf("Label = %q, want %q", p.Owner.Label(), tc.wantLabel)
			}
		})
	}
}

func TestRefMarshalSendsID(t *testing.T) {
	raw, err := json.Marshal(Appointment{Patient: Ref{ID: "p1", Name: "Luna"}, Status: VisitPending})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["patient"] != "p1" {
		t.Errorf("patient = %v, want %q", out["patient"], "p1")
	}
}

func TestActiveFlag(t *testing.T) {
	for payload, want := range map[string]bool{
		`{"is_active":1}`:     true,
		`{"is_active":0}`:     false,
		`{"is_active":true}`:  true,
		`{"is_active":false}`: false,
		`{"is_active":"1"}`:   true,
	} {
		var u User
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			t.Fatalf("Unmarshal(%s): %v", payload, err)
		}
		if u.IsActive.Bool() != want {
			t.Errorf("%s: Bool = %v, want %v", payload, u.IsActive.Bool(), want)
		}
	}
}

func TestIdentityAndAuthState(t *testing.T) {
	var state AuthState
	if state.IsAuthenticated() {
		t.Error("empty state should not be authenticated")
	}
	id := &Identity{Email: "vet@example.com"}
	if id.DisplayName() != "vet@example.com" {
		t.Errorf("DisplayName = %q, want email fallback", id.DisplayName())
	}
	id.Name = "Vet"
	if id.DisplayName() != "Vet" {
		t.Errorf("DisplayName = %q, want %q", id.DisplayName(), "Vet")
	}
	if !(AuthState{Identity: id}).IsAuthenticated() {
		t.Error("state with identity should be authenticated")
	}
}
