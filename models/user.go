// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account role stored on a user. Authorization checkpoints
// switch exhaustively over these values.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User model
type User struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email               string             `json:"email" bson:"email"`
	Password            string             `json:"password,omitempty" bson:"password"`
	FullName            string             `json:"fullName" bson:"fullName"`
	Role                Role               `json:"role" bson:"role"`
	Phone               string             `json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive            bool               `json:"isActive" bson:"isActive"`
	GoogleID            string             `json:"googleId,omitempty" bson:"googleId,omitempty"`
	GoogleEmail         string             `json:"googleEmail,omitempty" bson:"googleEmail,omitempty"`
	ProfilePic          string             `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	FCMToken            string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	ResetPasswordToken  string             `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetTokenExpiresAt time.Time          `json:"-" bson:"resetTokenExpiresAt,omitempty"`
	LastActivityAt      time.Time          `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser is the user shape returned to other users and admin listings.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	Email     string             `json:"email"`
	FullName  string             `json:"fullName"`
	Role      Role               `json:"role"`
	Phone     string             `json:"phone,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Public strips credential and token fields from a user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
