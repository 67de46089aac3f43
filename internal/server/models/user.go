package models

import "github.com/dmitrijs2005/fitkeeper/internal/common"

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	Base         `bson:",inline"`
	Username     string `bson:"username" json:"username" validate:"required,min=3,max=64"`
	PasswordHash string `bson:"password" json:"-"`
	Email        string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
	Nickname     string `bson:"nickname,omitempty" json:"nickname,omitempty"`
	Avatar       string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role         string `bson:"role" json:"role" validate:"omitempty,oneof=admin user"`
	Status       string `bson:"status" json:"status" validate:"omitempty,oneof=active disabled"`
}

func (u *User) IsAdmin() bool { return u.Role == common.RoleAdmin }
