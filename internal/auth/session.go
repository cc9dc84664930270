// Package auth issues and verifies bearer credentials and models the
// authenticated caller that is handed to every service operation.
package auth

import "lpotracker/internal/model"

// Session is the verified identity of the caller of a request
type Session struct {
	UserID uint
	Role   string
	Name   string
}

func (s Session) IsAdmin() bool {
	return s.Role == model.RoleAdmin
}

// Owns reports whether the session belongs to the user with the given id.
func (s Session) Owns(userID uint) bool {
	return s.UserID != 0 && s.UserID == userID
}
