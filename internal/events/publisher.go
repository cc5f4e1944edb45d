package events

import (
	"context"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/pkg/utils"
)

const (
	TypeInquiryCreated = "inquiry.created"
	TypeReplyCreated   = "reply.created"

	previewLength = 140
)

// Event announces a new inquiry or reply to downstream consumers such as the
// notification service.
type Event struct {
	Type       string    `json:"type"`
	MessageID  string    `json:"message_id"`
	PropertyID string    `json:"property_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id,omitempty"`
	ParentID   string    `json:"parent_id,omitempty"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEvent builds the event for m. receiverID is the resolved recipient,
// which for inquiries is the property owner.
func NewEvent(eventType string, m *models.Message, receiverID string) Event {
	return Event{
		Type:       eventType,
		MessageID:  m.ID,
		PropertyID: m.PropertyID,
		SenderID:   m.SenderID,
		ReceiverID: receiverID,
		ParentID:   m.Parent(),
		Preview:    utils.TruncateString(m.Message, previewLength),
		CreatedAt:  m.CreatedAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
