package domain

import (
	"time"
)

// Membership roles.
const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// Group is a family (or any set of people) that works out together.
type Group struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     string    `bson:"ownerId" json:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// GroupMembership joins a user to a group. One per (group, user).
type GroupMembership struct {
	ID       string    `bson:"_id" json:"id"`
	GroupID  string    `bson:"groupId" json:"groupId"`
	UserID   string    `bson:"userId" json:"userId"`
	Role     string    `bson:"role" json:"role"`
	JoinedAt time.Time `bson:"joinedAt" json:"joinedAt"`
}

// GroupInvite is a shareable link token that lets users join a group.
type GroupInvite struct {
	ID        string    `bson:"_id" json:"id"`
	GroupID   string    `bson:"groupId" json:"groupId"`
	Token     string    `bson:"token" json:"token"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
}
