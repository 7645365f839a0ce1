package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("outlet")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if role != UserRoleOutlet {
		t.Fatalf("unexpected role %s", role)
	}
	if _, err := ParseUserRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestUserRoleIsValid(t *testing.T) {
	if !UserRoleAdmin.IsValid() {
		t.Fatal("admin should be valid")
	}
	if UserRole("root").IsValid() {
		t.Fatal("root should not be valid")
	}
}
