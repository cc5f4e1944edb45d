package services

import "time"

// InboxEntry is one inquiry as shown in a property owner's inbox.
type InboxEntry struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Email         string    `json:"email"`
	Message       string    `json:"message"`
	PropertyTitle string    `json:"propertyTitle"`
	Timestamp     time.Time `json:"timestamp"`
}

type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PropertyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ReplyView is a reply with its sender resolved.
type ReplyView struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"propertyId"`
	Sender        UserRef   `json:"senderId"`
	ReceiverID    *string   `json:"receiverId,omitempty"`
	Message       string    `json:"message"`
	IsReply       bool      `json:"isReply"`
	ParentMessage *string   `json:"parentMessage,omitempty"`
	Replies       []string  `json:"replies"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OutboxMessage is a message the caller sent, with its property resolved and
// the direct replies it received.
type OutboxMessage struct {
	ID            string      `json:"id"`
	Property      PropertyRef `json:"propertyId"`
	SenderID      string      `json:"senderId"`
	ReceiverID    *string     `json:"receiverId,omitempty"`
	Message       string      `json:"message"`
	IsReply       bool        `json:"isReply"`
	ParentMessage *string     `json:"parentMessage,omitempty"`
	Replies       []ReplyView `json:"replies"`
	CreatedAt     time.Time   `json:"createdAt"`
}
