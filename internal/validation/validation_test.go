package validation

import (
	"testing"

	"github.com/cropgen/agrichat/internal/models"
)

func TestCheckFieldName(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantValue string
		wantErr   bool
	}{
		{name: "valid name", value: "Acme Co", wantValue: "Acme Co", wantErr: false},
		{name: "exactly minimum length", value: "Jon", wantValue: "Jon", wantErr: false},
		{name: "too short", value: "Jo", wantValue: "Jo", wantErr: true},
		{name: "empty", value: "", wantValue: "", wantErr: true},
		{name: "multibyte name counted in characters", value: "रवि", wantValue: "रवि", wantErr: false},
		{name: "two multibyte characters too short", value: "éé", wantValue: "éé", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckField(FieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckField(name, %q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.wantValue {
				t.Errorf("CheckField(name, %q) = %q, want %q", tt.value, got, tt.wantValue)
			}
			if err != nil {
				if err.Reason != ReasonTooShort {
					t.Errorf("expected reason %q, got %q", ReasonTooShort, err.Reason)
				}
				if err.Message != "Please enter a valid name with at least 3 characters." {
					t.Errorf("unexpected message %q", err.Message)
				}
			}
		})
	}
}

func TestCheckFieldContact(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantValue string
		wantErr   bool
	}{
		{name: "plain ten digits", value: "9876543210", wantValue: "+919876543210"},
		{name: "digits with separators", value: "98765-43210", wantValue: "+919876543210"},
		{name: "digits with spaces and parens", value: "(987) 654 3210", wantValue: "+919876543210"},
		{name: "too few digits", value: "12345", wantValue: "12345", wantErr: true},
		{name: "too many digits", value: "98765432100", wantValue: "98765432100", wantErr: true},
		{name: "no digits at all", value: "call me", wantValue: "call me", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckField(FieldContact, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckField(contact, %q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.wantValue {
				t.Errorf("CheckField(contact, %q) = %q, want %q", tt.value, got, tt.wantValue)
			}
			if err != nil && err.Message != "Please enter a valid 10-digit mobile number" {
				t.Errorf("unexpected message %q", err.Message)
			}
		})
	}
}

func TestCheckFieldEmail(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid email", value: "a@b.com"},
		{name: "subdomain", value: "user@mail.example.org"},
		{name: "missing at", value: "not-an-email", wantErr: true},
		{name: "missing dot in domain", value: "a@b", wantErr: true},
		{name: "embedded whitespace", value: "a b@c.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckField(FieldEmail, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckField(email, %q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.value {
				t.Errorf("CheckField(email, %q) = %q, want value passed through", tt.value, got)
			}
			if err != nil && err.Message != "Please enter a valid email address." {
				t.Errorf("unexpected message %q", err.Message)
			}
		})
	}
}

func TestCheckFieldUnknown(t *testing.T) {
	_, err := CheckField("favorite_crop", "wheat")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if err.Reason != ReasonUnknownField {
		t.Errorf("expected reason %q, got %q", ReasonUnknownField, err.Reason)
	}
}

func TestFieldsForKind(t *testing.T) {
	org := FieldsForKind(models.SubjectOrganization)
	if len(org) != 3 || org[0] != FieldName || org[1] != FieldContact || org[2] != FieldEmail {
		t.Errorf("unexpected organization fields: %v", org)
	}
	farmer := FieldsForKind(models.SubjectFarmer)
	if len(farmer) != 2 || farmer[0] != FieldName || farmer[1] != FieldContact {
		t.Errorf("unexpected farmer fields: %v", farmer)
	}
}

func TestCheckRecord(t *testing.T) {
	tests := []struct {
		name        string
		kind        models.SubjectKind
		fields      map[string]string
		wantReasons []Reason
	}{
		{
			name: "valid organization",
			kind: models.SubjectOrganization,
			fields: map[string]string{
				FieldName:    "Acme Co",
				FieldContact: "+919876543210",
				FieldEmail:   "a@b.com",
			},
		},
		{
			name: "valid farmer",
			kind: models.SubjectFarmer,
			fields: map[string]string{
				FieldName:    "Ravi Kumar",
				FieldContact: "+919876543210",
			},
		},
		{
			name: "missing email",
			kind: models.SubjectOrganization,
			fields: map[string]string{
				FieldName:    "Acme Co",
				FieldContact: "+919876543210",
			},
			wantReasons: []Reason{ReasonMissing},
		},
		{
			name: "two multibyte characters too short",
			kind: models.SubjectFarmer,
			fields: map[string]string{
				FieldName:    "éé",
				FieldContact: "+919876543210",
			},
			wantReasons: []Reason{ReasonTooShort},
		},
		{
			name: "uncanonical contact rejected",
			kind: models.SubjectFarmer,
			fields: map[string]string{
				FieldName:    "Ravi Kumar",
				FieldContact: "9876543210",
			},
			wantReasons: []Reason{ReasonBadPhone},
		},
		{
			name: "stray field for farmer",
			kind: models.SubjectFarmer,
			fields: map[string]string{
				FieldName:    "Ravi Kumar",
				FieldContact: "+919876543210",
				FieldEmail:   "a@b.com",
			},
			wantReasons: []Reason{ReasonUnknownField},
		},
		{
			name:   "everything missing",
			kind:   models.SubjectFarmer,
			fields: map[string]string{},
			wantReasons: []Reason{
				ReasonMissing, ReasonMissing,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckRecord(tt.kind, tt.fields)
			if len(errs) != len(tt.wantReasons) {
				t.Fatalf("CheckRecord returned %d errors (%v), want %d", len(errs), errs, len(tt.wantReasons))
			}
			for i, want := range tt.wantReasons {
				if errs[i].Reason != want {
					t.Errorf("error %d: reason = %q, want %q", i, errs[i].Reason, want)
				}
			}
		})
	}
}
