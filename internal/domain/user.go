package domain

import (
	"time"
)

// User is a person known to the system. Users are provisioned from identity
// provider claims on their first authenticated request.
type User struct {
	ID string `bson:"_id" json:"id"`
	// ExternalID is the identity provider's stable object ID (the "oid" claim).
	ExternalID string    `bson:"externalId,omitempty" json:"-"`
	Username   string    `bson:"username" json:"username"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// DisplayName returns the name shown in session views.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
