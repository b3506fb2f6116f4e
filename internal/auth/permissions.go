// Package auth - permissions.go defines the permission name constants seeded into
// the permission catalogue and provides HasPermission, HasAnyPermission, and
// HasAllPermissions helper functions for claim checking.
package auth

import (
	"errors"
	"fmt"
)

// Permission represents a named capability granted through group membership
type Permission string

const (
	// User administration permissions
	PermissionManageUsers Permission = "Manage Users"
	PermissionViewUsers   Permission = "View Users"

	// Group administration permissions
	PermissionManageGroups Permission = "Manage Groups"
	PermissionViewGroups   Permission = "View Groups"

	// Reporting permissions
	PermissionViewReports Permission = "View Reports"
)

// AllPermissions returns all valid permissions
func AllPermissions() []Permission {
	return []Permission{
		PermissionManageUsers,
		PermissionViewUsers,
		PermissionManageGroups,
		PermissionViewGroups,
		PermissionViewReports,
	}
}

// ValidPermissions returns a map of valid permission names
func ValidPermissions() map[string]bool {
	valid := make(map[string]bool)
	for _, p := range AllPermissions() {
		valid[string(p)] = true
	}
	return valid
}

// ValidatePermissions checks if all provided permission names are valid
func ValidatePermissions(names []string) error {
	valid := ValidPermissions()
	for _, name := range names {
		if !valid[name] {
			return fmt.Errorf("invalid permission: %s", name)
		}
	}
	return nil
}

// HasPermission checks if a claim set contains the required permission.
// The corresponding Manage permission implies its View counterpart.
func HasPermission(claims []string, required Permission) bool {
	requiredStr := string(required)

	for _, claim := range claims {
		if claim == requiredStr {
			return true
		}

		// Manage implies view within the same resource.
		if required == PermissionViewUsers && claim == string(PermissionManageUsers) {
			return true
		}
		if required == PermissionViewGroups && claim == string(PermissionManageGroups) {
			return true
		}
	}

	return false
}

// HasAnyPermission checks if a claim set contains at least one of the required permissions
func HasAnyPermission(claims []string, required []Permission) bool {
	for _, p := range required {
		if HasPermission(claims, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if a claim set contains all of the required permissions
func HasAllPermissions(claims []string, required []Permission) bool {
	for _, p := range required {
		if !HasPermission(claims, p) {
			return false
		}
	}
	return true
}

// ValidatePermissionString validates a single permission name
func ValidatePermissionString(name string) error {
	if !ValidPermissions()[name] {
		return errors.New("invalid permission")
	}
	return nil
}
