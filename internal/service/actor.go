package service

import "campus_marketplace/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// owns reports whether the actor is ownerID or an admin.
func (a Actor) owns(ownerID uint) bool {
	return a.UserID == ownerID || a.IsAdmin()
}
