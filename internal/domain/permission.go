// Package domain contains core business types and interfaces.
//
// This file defines the permission gate: an enumerated permission type
// with a static role allow-list per permission. Checks are pure table
// lookups, evaluated after authentication succeeds.
package domain

// Permission identifies a guarded action.
type Permission string

const (
	PermEntryCreate      Permission = "entry:create"
	PermEntryView        Permission = "entry:view"
	PermEntryDelete      Permission = "entry:delete"
	PermBillAnalyze      Permission = "bill:analyze"
	PermReportGenerate   Permission = "report:generate"
	PermReportView       Permission = "report:view"
	PermUserInvite       Permission = "user:invite"
	PermUserList         Permission = "user:list"
	PermAuditWrite       Permission = "audit:write"
	PermAuditView        Permission = "audit:view"
	PermTenantView       Permission = "tenant:view"
	PermTenantManage     Permission = "tenant:manage"
	PermSystemRateLimits Permission = "system:rate_limits"
)

// permissionRoles maps each permission to the roles allowed to exercise it.
// Superadmin is included explicitly everywhere rather than special-cased so
// the table reads as the single source of truth.
var permissionRoles = map[Permission]map[Role]bool{
	PermEntryCreate:      {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true},
	PermEntryView:        {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true, RoleViewer: true},
	PermEntryDelete:      {RoleSuperadmin: true, RoleAdmin: true},
	PermBillAnalyze:      {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true},
	PermReportGenerate:   {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true},
	PermReportView:       {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true, RoleViewer: true},
	PermUserInvite:       {RoleSuperadmin: true, RoleAdmin: true},
	PermUserList:         {RoleSuperadmin: true, RoleAdmin: true},
	PermAuditWrite:       {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true},
	PermAuditView:        {RoleSuperadmin: true, RoleAdmin: true},
	PermTenantView:       {RoleSuperadmin: true, RoleAdmin: true, RoleClerk: true, RoleViewer: true},
	PermTenantManage:     {RoleSuperadmin: true},
	PermSystemRateLimits: {RoleSuperadmin: true},
}

// RoleHasPermission reports whether the role is in the permission's
// allow-list. Unknown permissions and unknown roles are denied.
func RoleHasPermission(role Role, perm Permission) bool {
	allowed, ok := permissionRoles[perm]
	if !ok {
		return false
	}
	return allowed[role]
}

// Can reports whether the user holds the given permission.
func (u *User) Can(perm Permission) bool {
	return RoleHasPermission(u.Role, perm)
}
