package models

import "github.com/google/uuid"

// Role distinguishes customers from workers.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
)

// ParseRole maps signup input to a Role. The legacy value "user" and an empty
// value both mean customer.
func ParseRole(v string) (Role, bool) {
	switch v {
	case "", "user", string(RoleCustomer):
		return RoleCustomer, true
	case string(RoleWorker):
		return RoleWorker, true
	}
	return "", false
}

// User represents an authenticated account.
type User struct {
	BaseModel
	Name           string        `json:"name"`
	Email          string        `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string        `json:"-"`
	Role           Role          `gorm:"type:varchar(16);default:customer" json:"role"`
	ProfilePicture string        `json:"profile_picture"`
	FCMToken       string        `json:"-"`
	Addresses      []UserAddress `json:"addresses,omitempty"`
}

// UserAddress is a saved address on a user's account.
type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	Address     string    `json:"address"`
	HouseNumber string    `json:"house_number"`
	Landmark    string    `json:"landmark"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
}
