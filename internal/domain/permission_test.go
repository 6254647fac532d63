package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role Role
		perm Permission
		want bool
	}{
		{"superadmin can manage rate limits", RoleSuperadmin, PermSystemRateLimits, true},
		{"admin cannot manage rate limits", RoleAdmin, PermSystemRateLimits, false},
		{"clerk can create entries", RoleClerk, PermEntryCreate, true},
		{"viewer cannot create entries", RoleViewer, PermEntryCreate, false},
		{"viewer can view entries", RoleViewer, PermEntryView, true},
		{"clerk cannot delete entries", RoleClerk, PermEntryDelete, false},
		{"admin can invite users", RoleAdmin, PermUserInvite, true},
		{"clerk cannot invite users", RoleClerk, PermUserInvite, false},
		{"unknown role denied", Role("auditor"), PermEntryView, false},
		{"unknown permission denied", RoleSuperadmin, Permission("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleHasPermission(tt.role, tt.perm))
		})
	}
}

// Every permission in the table must grant superadmin; the table is the
// single source of truth, so a missing superadmin row is a bug.
func TestPermissionTable_SuperadminEverywhere(t *testing.T) {
	for perm := range permissionRoles {
		assert.True(t, RoleHasPermission(RoleSuperadmin, perm), "superadmin missing from %s", perm)
	}
}
