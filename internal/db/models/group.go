// Package models - group.go defines the Group and Permission models. Groups own a
// set of permissions (many-to-many) and are referenced by user memberships.
package models

// Group represents a named collection of users sharing a permission set
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Permission represents a single named capability. Permissions are immutable
// reference data seeded at initialisation; they are assigned to groups, never
// created or deleted at runtime.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GroupMemberCount pairs a group name with its approved member count, used by
// the stats endpoints.
type GroupMemberCount struct {
	GroupName   string `json:"group_name" db:"group_name"`
	MemberCount int    `json:"member_count" db:"member_count"`
}
