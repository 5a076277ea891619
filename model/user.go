package model

import "time"

// 系统角色名称
const (
	RoleNameAdmin   = "ADMIN"
	RoleNameCreator = "CREATOR"
	RoleNameUser    = "USER"
)

// User represents an account in the system. Users are never hard-deleted.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"size:80;not null"`
	Email        string    `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Blocked      bool      `json:"blocked" gorm:"default:false;not null"`
	Roles        []Role    `json:"roles" gorm:"many2many:user_roles;"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// RoleNames 返回用户持有的角色名
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role 角色
type Role struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:20;uniqueIndex;not null"`
}

// TableName 指定表名
func (Role) TableName() string {
	return "roles"
}
