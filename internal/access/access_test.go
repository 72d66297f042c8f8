package access

import (
	"context"
	"testing"

	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
)

func TestSuperAdminAlwaysPassesAdminChecks(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), "root")

	ok, err := svc.CheckRole(ctx, RoleAdmin, "root")
	if err != nil || !ok {
		t.Fatalf("Super admin must hold admin: ok=%v err=%v", ok, err)
	}

	// Only the admin role, not the others
	ok, err = svc.CheckRole(ctx, RoleMinter, "root")
	if err != nil {
		t.Fatalf("Role check failed: %v", err)
	}
	if ok {
		t.Error("Super admin must not implicitly hold non-admin roles")
	}
}

func TestGrantAndRevokeRole(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), "root")

	// Non-admins may not manage roles
	err := svc.GrantRole(ctx, "rando", RoleModerator, "bob")
	if fault.KindOf(err) != fault.KindAuthorization {
		t.Fatalf("Expected authorization fault, got %v", err)
	}

	if err := svc.GrantRole(ctx, "root", RoleModerator, "bob"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	ok, err := svc.CheckRole(ctx, RoleModerator, "bob")
	if err != nil || !ok {
		t.Fatalf("Expected bob to hold moderator: ok=%v err=%v", ok, err)
	}

	if err := svc.RevokeRole(ctx, "root", RoleModerator, "bob"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	ok, _ = svc.CheckRole(ctx, RoleModerator, "bob")
	if ok {
		t.Error("Revoked role still held")
	}

	// Granted admins can manage roles themselves
	if err := svc.GrantRole(ctx, "root", RoleAdmin, "alice"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if err := svc.GrantRole(ctx, "alice", RoleMinter, "bob"); err != nil {
		t.Fatalf("Granted admin could not manage roles: %v", err)
	}
}

func TestGrantRequiresIdentity(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), "root")

	err := svc.GrantRole(context.Background(), "root", RoleMinter, "")
	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("Expected validation fault, got %v", err)
	}
}
