package models

import "github.com/google/uuid"

// User is an identity record. Friends is an unordered set of user ids;
// it never contains the owner's own id.
type User struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Password  string      `json:"password,omitempty"`
	Username  string      `json:"username"`
	GivenName string      `json:"given_name"`
	Surname   string      `json:"surname"`
	Friends   []uuid.UUID `json:"friends"`
}

// HasFriend reports whether id is a member of the user's friend set.
func (u *User) HasFriend(id uuid.UUID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
