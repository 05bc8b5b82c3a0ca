// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// User is the canonical identity of one human. It is created once, the first time any
// provider identity (or the legacy password channel) is seen, and never duplicated.
type User struct {
	ID        int64     // Numeric primary key assigned by the store.
	Email     string    // Unique; synthesized as <providerAccountId>@<domain> when the provider withholds it.
	Name      string    // Display name, first-write-wins.
	Username  *string   // Only set for the legacy password channel.
	Phone     *string   // Optional contact number.
	Picture   string    // Avatar URL reported by the first provider.
	CreatedAt time.Time // Timestamp of when this user account was created.
	UpdatedAt time.Time // Timestamp of the last modification to this user's data.
}

// DisplayUsername returns the username or an empty string.
func (u *User) DisplayUsername() string {
	if u == nil || u.Username == nil {
		return ""
	}

	return *u.Username
}
