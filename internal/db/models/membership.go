package models

import "time"

// MembershipStatus is the approval state of a user's membership in a group,
// independent of the user's own account status.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusApproved MembershipStatus = "approved"
	MembershipStatusDeclined MembershipStatus = "declined"
)

// Membership is the association record between a user and a group. At most one
// membership exists per (user, group) pair; it is removed when either side is deleted.
type Membership struct {
	UserID           string           `json:"user_id"`
	GroupID          int64            `json:"group_id"`
	GroupName        string           `json:"group_name"`
	Status           MembershipStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	GroupPermissions []string         `json:"group_permissions,omitempty"`
}
