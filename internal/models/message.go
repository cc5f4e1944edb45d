package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is either a top-level inquiry about a property or a reply to
// another message. Replies are ordinary messages linked through
// ParentMessageID, so a reply can itself be replied to.
type Message struct {
	ID         string  `gorm:"primaryKey;type:text" json:"id" bson:"_id"`
	PropertyID string  `gorm:"index;type:text;not null" json:"propertyId" bson:"property_id"`
	SenderID   string  `gorm:"index;type:text;not null" json:"senderId" bson:"sender_id"`
	ReceiverID *string `gorm:"index;type:text" json:"receiverId,omitempty" bson:"receiver_id,omitempty"`
	Message    string  `gorm:"type:text;not null" json:"message" bson:"message"`

	// Threading
	IsReply         bool    `gorm:"not null;default:false;index" json:"isReply" bson:"is_reply"`
	ParentMessageID *string `gorm:"column:parent_message_id;type:text;index" json:"parentMessage,omitempty" bson:"parent_message,omitempty"`

	// Replies lists child message ids in creation order. The relational store
	// derives it from parent_message_id; the document store persists it.
	Replies []string `gorm:"-" json:"replies" bson:"replies"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return
}

// Receiver returns the stored receiver id, or "" for inquiries whose
// receiver is implicitly the property owner.
func (m *Message) Receiver() string {
	if m.ReceiverID == nil {
		return ""
	}
	return *m.ReceiverID
}

// Parent returns the parent message id, or "" for inquiries.
func (m *Message) Parent() string {
	if m.ParentMessageID == nil {
		return ""
	}
	return *m.ParentMessageID
}
