// Package models - user.go defines the User model for service accounts with email,
// name, hashed credential, and approval status, along with helpers for aggregating
// effective permissions across approved group memberships.
package models

import "time"

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDeclined UserStatus = "declined"
)

// User represents a user account in the system
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns the user's full name as embedded in token claims.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// UserWithGroups represents a user with their group membership information
type UserWithGroups struct {
	User
	Memberships []Membership `json:"memberships"`
}

// EffectivePermissions returns the de-duplicated union of permission names across
// all groups in which the user holds an approved membership. An empty set is a
// valid outcome for users with no approved memberships.
func (u *UserWithGroups) EffectivePermissions() []string {
	permSet := make(map[string]bool)
	for _, m := range u.Memberships {
		if m.Status != MembershipStatusApproved {
			continue
		}
		for _, p := range m.GroupPermissions {
			permSet[p] = true
		}
	}
	perms := make([]string, 0, len(permSet))
	for p := range permSet {
		perms = append(perms, p)
	}
	return perms
}
