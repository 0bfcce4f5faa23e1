package service

import "tourbook/internal/domain"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }
func (a Actor) IsStaff() bool       { return domain.IsStaff(a.Role) }
func (a Actor) IsAdmin() bool       { return a.Role == domain.RoleAdmin }

// CanAccess reports whether the actor may read or act on a resource owned by ownerID.
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsStaff() || (a.Authenticated() && a.UserID == ownerID)
}
