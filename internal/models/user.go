package models

import (
	"time"
)

// User is the account record owned by the account service. Messaging only
// reads it to show who sent an inquiry or reply.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id" bson:"_id"`
	Name      string    `gorm:"type:text" json:"name" bson:"name"`
	Email     string    `gorm:"type:text;index" json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (User) TableName() string {
	return "users"
}
