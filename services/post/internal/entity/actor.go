package entity

import "postcraft/pkg/jwt"

// Actor is the authenticated caller of a post operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == jwt.RoleAdmin
}

// CanManage reports whether a may drive p through its lifecycle.
func (a Actor) CanManage(p *Post) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == p.OwnerID)
}
