package users

import (
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an employee account
type User struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	Username       string             `json:"username" bson:"username" validate:"required,min=3,max=64"`
	Role           policy.Role        `json:"role" bson:"role" validate:"required"`
	Password       string             `json:"-" bson:"password" validate:"required"`
	ProfileImage   string             `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	LastModifiedAt time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt"`
}

// Summary is the public part of a user embedded into tasks and attendance records
type Summary struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Username string             `json:"username" bson:"username"`
	Role     policy.Role        `json:"role" bson:"role"`
}

// Summary returns the public part of the user
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserLogin is the body of a login request
type UserLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangeObserver is told whenever the set of users or their roles changed
type ChangeObserver interface {
	UsersChanged()
}
