package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	Id        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Email     string             `json:"email" bson:"email"`
	Username  string             `json:"username" bson:"username"`
	Password  string             `json:"-" bson:"password"`
	Mobile    string             `json:"mobile" bson:"mobile"`
	Gender    string             `json:"gender,omitempty" bson:"gender,omitempty"`
	UserType  []string           `json:"userType" bson:"userType"`
	UserGroup []string           `json:"userGroup" bson:"userGroup"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DisplayName is the name embedded in session tokens.
func (u User) DisplayName() string {
	return u.FirstName
}
