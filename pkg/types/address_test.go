package types

import (
	"reflect"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	line2 := "Suite 4"
	addr := Address{
		Line1:      "12 Oxford St",
		Line2:      &line2,
		City:       "Accra",
		State:      "Greater Accra",
		PostalCode: "GA-100",
		Country:    "GH",
	}

	value, err := addr.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded Address
	if err := decoded.Scan([]byte(value.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !reflect.DeepEqual(decoded, addr) {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, addr)
	}
}

func TestAddressValueRejectsMissingFields(t *testing.T) {
	addr := Address{City: "Accra", State: "Greater Accra", Country: "GH"}
	if _, err := addr.Value(); err == nil {
		t.Fatal("expected error for missing line1")
	}
}

func TestAddressScanNil(t *testing.T) {
	addr := Address{Line1: "stale"}
	if err := addr.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if addr.Line1 != "" {
		t.Fatal("expected zeroed address")
	}
}
