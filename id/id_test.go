package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/mealledger/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"LedgerID", id.NewLedgerID, "mbr_"},
		{"MealPlanID", id.NewMealPlanID, "mplan_"},
		{"HistoryID", id.NewHistoryID, "mhe_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"LedgerID", id.NewLedgerID, id.ParseLedgerID},
		{"MealPlanID", id.NewMealPlanID, id.ParseMealPlanID},
		{"HistoryID", id.NewHistoryID, id.ParseHistoryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed != original {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseLedgerID rejects mplan_", id.NewMealPlanID().String(), id.ParseLedgerID},
		{"ParseMealPlanID rejects mhe_", id.NewHistoryID().String(), id.ParseMealPlanID},
		{"ParseHistoryID rejects mbr_", id.NewLedgerID().String(), id.ParseHistoryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q", tt.input)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "mbr_", "not an id", "mbr_!!!"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty string and prefix, got %q / %q", i.String(), i.Prefix())
	}
}

func TestCompareFollowsCreationOrder(t *testing.T) {
	a := id.NewLedgerID()
	b := id.NewLedgerID()
	if a.Compare(b) > 0 {
		t.Errorf("expected %q to sort before %q", a, b)
	}
	if a.Compare(a) != 0 {
		t.Error("expected an ID to compare equal to itself")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		ID    id.ID `json:"id"`
		Empty id.ID `json:"empty"`
	}

	in := wrapper{ID: id.NewLedgerID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID {
		t.Errorf("mismatch: %q != %q", out.ID, in.ID)
	}
	if !out.Empty.IsNil() {
		t.Error("expected empty ID to stay nil")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewHistoryID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned != original {
		t.Errorf("mismatch: %q != %q", scanned, original)
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if fromBytes != original {
		t.Errorf("mismatch: %q != %q", fromBytes, original)
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil || val != nil {
		t.Fatalf("Value(nil) = %v, %v; want nil, nil", val, err)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil || !scanned2.IsNil() {
		t.Fatalf("Scan(nil) left %q, err %v", scanned2, err)
	}

	if err := scanned2.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
