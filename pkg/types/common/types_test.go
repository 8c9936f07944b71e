package common

import "testing"

func TestSourceDatasetValid(t *testing.T) {
	for _, s := range []SourceDataset{SourceCustomer, SourceSales, SourceEmail} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if SourceDataset("crm").Valid() {
		t.Error("expected unknown dataset to be invalid")
	}
}

func TestRecordIDOrder(t *testing.T) {
	a := RecordID{Source: SourceCustomer, Row: 10}
	b := RecordID{Source: SourceCustomer, Row: 11}
	c := RecordID{Source: SourceSales, Row: 1}

	if !a.Less(b) {
		t.Error("expected lower row to sort first within a source")
	}
	if !a.Less(c) {
		t.Error("expected customer source to sort before sales")
	}
	if c.Less(a) {
		t.Error("order must be antisymmetric")
	}
	if a.String() != "customer/10" {
		t.Errorf("unexpected string form: %s", a.String())
	}
}

func TestNewBusinessID(t *testing.T) {
	a := NewBusinessID()
	b := NewBusinessID()
	if a.IsZero() || b.IsZero() {
		t.Fatal("minted IDs must be non-zero")
	}
	if a == b {
		t.Error("two minted IDs must differ")
	}
}

func TestFieldKindValid(t *testing.T) {
	for _, k := range []FieldKind{FieldName, FieldEmail, FieldPhone} {
		if !k.Valid() {
			t.Errorf("expected %s to be valid", k)
		}
	}
	if FieldKind("ssn").Valid() {
		t.Error("expected unknown field kind to be invalid")
	}
}
