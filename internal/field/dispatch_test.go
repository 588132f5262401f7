package field

import (
	"reflect"
	"testing"

	"github.com/Pleeriyenterprise/intake/model"
)

func TestControlFor(t *testing.T) {
	tests := []struct {
		fieldType string
		want      string
	}{
		{model.FieldShortText, ControlText},
		{model.FieldLongText, ControlTextarea},
		{model.FieldNumber, ControlNumber},
		{model.FieldDate, ControlDate},
		{model.FieldSingleChoice, ControlSelect},
		{model.FieldMultiChoice, ControlMultiSelect},
		{model.FieldBoolean, ControlToggle},
		{model.FieldAddress, ControlAddress},
	}
	for _, tt := range tests {
		fd := model.FieldDescriptor{Type: tt.fieldType}
		if got := ControlFor(fd); got != tt.want {
			t.Errorf("ControlFor(%q) = %q, want %q", tt.fieldType, got, tt.want)
		}
	}
}

func TestControlFor_unknownTagFallsBackToText(t *testing.T) {
	fd := model.FieldDescriptor{Type: "hologram"}
	if got := ControlFor(fd); got != ControlText {
		t.Errorf("ControlFor(unknown) = %q, want %q", got, ControlText)
	}
}

func TestCoerce_number(t *testing.T) {
	min, max := 1.0, 10.0
	fd := model.FieldDescriptor{ID: "bedrooms", Type: model.FieldNumber, Min: &min, Max: &max}

	got, ferr := Coerce(fd, "3")
	if ferr != nil {
		t.Fatalf("Coerce(%q) error = %v", "3", ferr)
	}
	if got != 3.0 {
		t.Errorf("Coerce = %v, want 3.0", got)
	}

	if _, ferr := Coerce(fd, "twelve"); ferr == nil || ferr.Code != CodeInvalidNumber {
		t.Errorf("Coerce(non-numeric) error = %v, want %s", ferr, CodeInvalidNumber)
	}
	if _, ferr := Coerce(fd, 11.0); ferr == nil || ferr.Code != CodeOutOfRange {
		t.Errorf("Coerce(above max) error = %v, want %s", ferr, CodeOutOfRange)
	}
	if _, ferr := Coerce(fd, 0.5); ferr == nil || ferr.Code != CodeOutOfRange {
		t.Errorf("Coerce(below min) error = %v, want %s", ferr, CodeOutOfRange)
	}
}

func TestCoerce_date(t *testing.T) {
	fd := model.FieldDescriptor{ID: "move_in", Type: model.FieldDate}

	got, ferr := Coerce(fd, "2026-09-15")
	if ferr != nil {
		t.Fatalf("Coerce error = %v", ferr)
	}
	// Stored exactly as given, no timezone normalization.
	if got != "2026-09-15" {
		t.Errorf("Coerce = %v, want %q", got, "2026-09-15")
	}

	for _, bad := range []string{"15/09/2026", "2026-13-01", "tomorrow"} {
		if _, ferr := Coerce(fd, bad); ferr == nil || ferr.Code != CodeInvalidDate {
			t.Errorf("Coerce(%q) error = %v, want %s", bad, ferr, CodeInvalidDate)
		}
	}
}

func TestCoerce_singleChoice(t *testing.T) {
	fd := model.FieldDescriptor{
		ID:   "tier",
		Type: model.FieldSingleChoice,
		Options: []model.FieldOption{
			{Value: "basic"}, {Value: "premium"},
		},
	}

	if got, ferr := Coerce(fd, "premium"); ferr != nil || got != "premium" {
		t.Errorf("Coerce = %v, %v; want premium, nil", got, ferr)
	}
	if _, ferr := Coerce(fd, "platinum"); ferr == nil || ferr.Code != CodeInvalidOption {
		t.Errorf("Coerce(out of set) error = %v, want %s", ferr, CodeInvalidOption)
	}
}

func TestCoerce_multiChoice(t *testing.T) {
	fd := model.FieldDescriptor{
		ID:   "extras",
		Type: model.FieldMultiChoice,
		Options: []model.FieldOption{
			{Value: "photos"}, {Value: "floorplan"}, {Value: "epc"},
		},
	}

	got, ferr := Coerce(fd, []any{"photos", "epc", "photos"})
	if ferr != nil {
		t.Fatalf("Coerce error = %v", ferr)
	}
	// Duplicates collapse, first-seen order preserved.
	want := []string{"photos", "epc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Coerce = %v, want %v", got, want)
	}

	// Delimited string form is also accepted.
	got, ferr = Coerce(fd, "floorplan,epc")
	if ferr != nil {
		t.Fatalf("Coerce(string) error = %v", ferr)
	}
	if !reflect.DeepEqual(got, []string{"floorplan", "epc"}) {
		t.Errorf("Coerce(string) = %v, want [floorplan epc]", got)
	}

	if _, ferr := Coerce(fd, []string{"drone"}); ferr == nil || ferr.Code != CodeInvalidOption {
		t.Errorf("Coerce(out of set) error = %v, want %s", ferr, CodeInvalidOption)
	}
}

func TestCoerce_boolean(t *testing.T) {
	fd := model.FieldDescriptor{ID: "furnished", Type: model.FieldBoolean}

	for raw, want := range map[any]bool{true: true, false: false, "true": true, "false": false} {
		got, ferr := Coerce(fd, raw)
		if ferr != nil {
			t.Fatalf("Coerce(%v) error = %v", raw, ferr)
		}
		if got != want {
			t.Errorf("Coerce(%v) = %v, want %v", raw, got, want)
		}
	}

	if _, ferr := Coerce(fd, "yes"); ferr == nil || ferr.Code != CodeInvalidType {
		t.Errorf("Coerce(%q) error = %v, want %s", "yes", ferr, CodeInvalidType)
	}
}

func TestCoerce_unknownTagCoercesAsText(t *testing.T) {
	fd := model.FieldDescriptor{ID: "mystery", Type: "hologram"}
	got, ferr := Coerce(fd, "whatever")
	if ferr != nil || got != "whatever" {
		t.Errorf("Coerce = %v, %v; want whatever, nil", got, ferr)
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name      string
		canonical any
		want      string
	}{
		{"string", "hello", "hello"},
		{"number", 3.0, "3"},
		{"decimal", 2.5, "2.5"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"set", []string{"a", "b"}, "a,b"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		if got := Serialize(model.FieldDescriptor{}, tt.canonical); got != tt.want {
			t.Errorf("%s: Serialize = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name      string
		canonical any
		want      bool
	}{
		{"nil", nil, true},
		{"blank string", "   ", true},
		{"string", "x", false},
		{"empty set", []string{}, true},
		{"set", []string{"a"}, false},
		{"false bool", false, true},
		{"true bool", true, false},
		{"zero number", 0.0, false},
	}
	for _, tt := range tests {
		if got := IsEmpty(tt.canonical); got != tt.want {
			t.Errorf("%s: IsEmpty = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsDefault(t *testing.T) {
	fd := model.FieldDescriptor{ID: "tier", Type: model.FieldShortText, Default: "basic"}
	if !IsDefault(fd, "basic") {
		t.Error("IsDefault(default value) = false, want true")
	}
	if IsDefault(fd, "premium") {
		t.Error("IsDefault(changed value) = true, want false")
	}
	noDefault := model.FieldDescriptor{ID: "notes", Type: model.FieldShortText}
	if IsDefault(noDefault, "") {
		t.Error("IsDefault with no declared default = true, want false")
	}
}
