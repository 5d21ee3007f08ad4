package domain

import "testing"

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(Caller{ID: "1", Role: RoleAdministrator}) {
		t.Fatalf("administrator must be admin")
	}
	if IsAdmin(Caller{ID: "1", Role: RoleClient}) {
		t.Fatalf("client must not be admin")
	}
	if IsAdmin(Caller{}) {
		t.Fatalf("anonymous must not be admin")
	}
}

func TestIsSelfOrAdmin(t *testing.T) {
	owner := Caller{ID: "u-1", Role: RoleClient}

	if !IsSelfOrAdmin(owner, "u-1") {
		t.Fatalf("owner must access own resource")
	}
	if IsSelfOrAdmin(owner, "u-2") {
		t.Fatalf("client must not access another identity")
	}
	if !IsSelfOrAdmin(Caller{ID: "a-1", Role: RoleAdministrator}, "u-2") {
		t.Fatalf("admin must access any identity")
	}
	if IsSelfOrAdmin(Caller{}, "") {
		t.Fatalf("anonymous caller with empty id must never match")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdministrator, RoleClient} {
		if !ValidRole(role) {
			t.Fatalf("role %q must be valid", role)
		}
	}
	for _, role := range []string{"", "root", "administrador"} {
		if ValidRole(role) {
			t.Fatalf("role %q must be invalid", role)
		}
	}
}
