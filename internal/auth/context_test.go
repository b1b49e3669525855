package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
)

func TestUserContextRoles(t *testing.T) {
	user := &UserContext{
		UserID: uuid.New(),
		Roles:  []domain.UserRoleType{domain.RoleAccountant, domain.RoleApprover},
	}

	if !user.HasRole(domain.RoleAccountant) {
		t.Error("HasRole(accountant) = false, want true")
	}
	if user.HasRole(domain.RoleAdmin) {
		t.Error("HasRole(admin) = true, want false")
	}
	if !user.HasAnyRole(domain.RoleAdmin, domain.RoleApprover) {
		t.Error("HasAnyRole(admin, approver) = false, want true")
	}
	if user.HasAnyRole(domain.RoleAdmin, domain.RoleDirector) {
		t.Error("HasAnyRole(admin, director) = true, want false")
	}
	if user.IsAdmin() {
		t.Error("IsAdmin() = true, want false")
	}
	if !user.CanApprove() {
		t.Error("CanApprove() = false, want true")
	}
}

func TestUserContextViewerCannotApprove(t *testing.T) {
	user := &UserContext{Roles: []domain.UserRoleType{domain.RoleViewer}}
	if user.CanApprove() {
		t.Error("CanApprove() = true for viewer, want false")
	}

	admin := &UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin}}
	if !admin.IsAdmin() {
		t.Error("IsAdmin() = false for admin, want true")
	}
	if !admin.CanApprove() {
		t.Error("CanApprove() = false for admin, want true")
	}
}

func TestRolesAsStrings(t *testing.T) {
	user := &UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin, domain.RoleViewer}}
	got := user.RolesAsStrings()
	want := []string{"admin", "viewer"}
	if len(got) != len(want) {
		t.Fatalf("RolesAsStrings() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RolesAsStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	user := &UserContext{
		UserID:      uuid.New(),
		DisplayName: "Иванов Иван",
		Email:       "ivanov@example.com",
		Roles:       []domain.UserRoleType{domain.RoleAccountant},
	}

	ctx := WithUserContext(context.Background(), user)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext() ok = false, want true")
	}
	if got.UserID != user.UserID || got.Email != user.Email {
		t.Errorf("FromContext() = %+v, want %+v", got, user)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext() on empty context ok = true, want false")
	}
}

func TestMustFromContextPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustFromContext() did not panic on empty context")
		}
	}()
	MustFromContext(context.Background())
}
