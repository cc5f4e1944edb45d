package models

import "time"

// Property is a rental listing. Only the owner and title matter here.
type Property struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id" bson:"_id"`
	OwnerID   string    `gorm:"index;type:text;not null" json:"ownerId" bson:"owner_id"`
	Title     string    `gorm:"type:text" json:"title" bson:"title"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (Property) TableName() string {
	return "properties"
}
