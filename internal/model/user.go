package model

import "time"

// Roles known to the portal.  Role is stored as a plain string so new roles
// can be introduced without a migration; RoleUser is the default.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// ValidRole reports whether r is one of the roles the portal understands.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table.  Username, email and phone number are each globally unique; the
// unique indexes are the final authority when two registrations race.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	FirstName    – given name.
//	LastName     – family name.
//	Username     – unique login name.
//	Email        – unique email address, target of password reset mails.
//	PhoneNumber  – unique phone number (E.164 when it could be parsed).
//	PasswordHash – bcrypt hash; never serialised.
//	Role         – access role, defaults to "user".
type User struct {
	ID           uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName    string    `json:"firstName" gorm:"size:100;not null"`
	LastName     string    `json:"lastName" gorm:"size:100;not null"`
	Username     string    `json:"username" gorm:"size:100;not null;uniqueIndex:uq_users_username"`
	Email        string    `json:"email" gorm:"size:100;not null;uniqueIndex:uq_users_email"`
	PhoneNumber  string    `json:"phoneNumber" gorm:"size:20;not null;uniqueIndex:uq_users_phone"`
	PasswordHash string    `json:"-" gorm:"size:200;not null"`
	Role         string    `json:"role" gorm:"size:50;not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}
