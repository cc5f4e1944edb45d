package services

import (
	"context"
	"errors"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/events"
	"github.com/pushp314/rental-messaging-backend/internal/metrics"
	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/internal/store"
	apperrors "github.com/pushp314/rental-messaging-backend/pkg/errors"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"github.com/pushp314/rental-messaging-backend/pkg/utils"
)

const (
	kindInquiry = "inquiry"
	kindReply   = "reply"
)

// InboxCache holds rendered owner inboxes. A miss returns found == false and
// a nil error. Every Invalidate bumps the owner's generation; SetIfCurrent
// drops the write when the generation moved since it was read, so an inbox
// loaded before an invalidation is never cached after it.
type InboxCache interface {
	Get(ctx context.Context, ownerID string, dest interface{}) (bool, error)
	Generation(ctx context.Context, ownerID string) (int64, error)
	SetIfCurrent(ctx context.Context, ownerID string, generation int64, value interface{}) error
	Invalidate(ctx context.Context, ownerID string) error
}

type Options struct {
	Cache     InboxCache
	Publisher events.Publisher

	// EnforceParticipants restricts replying and listing replies to the
	// property owner and the two parties of the message.
	EnforceParticipants bool

	Now func() time.Time
}

// ThreadService implements inquiries, replies and the inbox/outbox views on
// top of a record store.
type ThreadService struct {
	store     store.Store
	cache     InboxCache
	publisher events.Publisher
	enforce   bool
	now       func() time.Time
}

func NewThreadService(s store.Store, opts Options) *ThreadService {
	svc := &ThreadService{
		store:     s,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		enforce:   opts.EnforceParticipants,
		now:       opts.Now,
	}
	if svc.publisher == nil {
		svc.publisher = events.NoopPublisher{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// SendInquiry creates a top-level message from callerID about propertyID.
// A missing property is reported before an invalid body.
func (s *ThreadService) SendInquiry(ctx context.Context, callerID, propertyID, body string) (*models.Message, error) {
	property, err := s.store.FindProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Property not found")
		}
		return nil, apperrors.Internal(err)
	}

	text, err := utils.SanitizeMessage(body)
	if err != nil {
		return nil, apperrors.BadRequest(validationMessage(err))
	}

	msg := &models.Message{
		ID:         utils.GenerateID(),
		PropertyID: property.ID,
		SenderID:   callerID,
		Message:    text,
		Replies:    []string{},
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, apperrors.Internal(err)
	}

	metrics.MessagesCreated.WithLabelValues(kindInquiry).Inc()
	s.invalidateInbox(ctx, property.OwnerID)
	s.publish(ctx, events.NewEvent(events.TypeInquiryCreated, msg, property.OwnerID))

	logger.Info().
		Str("message_id", msg.ID).
		Str("property_id", msg.PropertyID).
		Str("sender_id", callerID).
		Msg("Inquiry sent")
	return msg, nil
}

// ReplyToMessage answers messageID on behalf of callerID. The reply goes to
// the other party: when the caller is the original's receiver it goes back
// to the original sender, otherwise to the original's receiver.
func (s *ThreadService) ReplyToMessage(ctx context.Context, callerID, messageID, body string) (*models.Message, error) {
	original, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	text, err := utils.SanitizeMessage(body)
	if err != nil {
		return nil, apperrors.BadRequest(validationMessage(err))
	}

	owner, receiver, err := s.threadParties(ctx, original)
	if err != nil {
		return nil, err
	}
	if s.enforce && !isParticipant(callerID, owner, original.SenderID, receiver) {
		return nil, apperrors.Forbidden("You are not a participant in this conversation")
	}

	newReceiver := receiver
	if callerID == receiver {
		newReceiver = original.SenderID
	}
	parentID := original.ID

	reply := &models.Message{
		ID:              utils.GenerateID(),
		PropertyID:      original.PropertyID,
		SenderID:        callerID,
		ReceiverID:      &newReceiver,
		Message:         text,
		IsReply:         true,
		ParentMessageID: &parentID,
		Replies:         []string{},
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateReply(ctx, original, reply); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Message not found")
		}
		return nil, apperrors.Internal(err)
	}

	metrics.MessagesCreated.WithLabelValues(kindReply).Inc()
	s.publish(ctx, events.NewEvent(events.TypeReplyCreated, reply, newReceiver))

	logger.Info().
		Str("message_id", reply.ID).
		Str("parent_id", parentID).
		Str("sender_id", callerID).
		Str("receiver_id", newReceiver).
		Msg("Reply sent")
	return reply, nil
}

// ListInboxGroupedByProperty returns the inquiries on properties owned by
// callerID, keyed by property id. Replies are not part of the inbox.
func (s *ThreadService) ListInboxGroupedByProperty(ctx context.Context, callerID string) (map[string][]InboxEntry, error) {
	cacheable := false
	var generation int64
	if s.cache != nil {
		var cached map[string][]InboxEntry
		found, err := s.cache.Get(ctx, callerID, &cached)
		switch {
		case err != nil:
			metrics.InboxCacheLookups.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Str("owner_id", callerID).Msg("Inbox cache read failed")
		case found && cached != nil:
			metrics.InboxCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.InboxCacheLookups.WithLabelValues("miss").Inc()
		}

		// Read before loading so an inquiry committed mid-load moves it.
		if generation, err = s.cache.Generation(ctx, callerID); err != nil {
			logger.Warn().Err(err).Str("owner_id", callerID).Msg("Inbox cache generation read failed")
		} else {
			cacheable = true
		}
	}

	inbox, err := s.loadInbox(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetIfCurrent(ctx, callerID, generation, inbox); err != nil {
			logger.Warn().Err(err).Str("owner_id", callerID).Msg("Inbox cache write failed")
		}
	}
	return inbox, nil
}

func (s *ThreadService) loadInbox(ctx context.Context, ownerID string) (map[string][]InboxEntry, error) {
	inbox := make(map[string][]InboxEntry)

	props, err := s.store.FindPropertiesByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(props) == 0 {
		return inbox, nil
	}

	titles := make(map[string]string, len(props))
	propertyIDs := make([]string, 0, len(props))
	for _, p := range props {
		titles[p.ID] = p.Title
		propertyIDs = append(propertyIDs, p.ID)
	}

	msgs, err := s.store.FindMessages(ctx, store.MessageFilter{
		PropertyIDs:  propertyIDs,
		TopLevelOnly: true,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	senders, err := s.usersByID(ctx, senderIDs(msgs))
	if err != nil {
		return nil, err
	}

	for _, m := range msgs {
		sender := senders[m.SenderID]
		inbox[m.PropertyID] = append(inbox[m.PropertyID], InboxEntry{
			ID:            m.ID,
			Sender:        sender.Name,
			Email:         sender.Email,
			Message:       m.Message,
			PropertyTitle: titles[m.PropertyID],
			Timestamp:     m.CreatedAt,
		})
	}
	return inbox, nil
}

// ListOutboxWithReplies returns every message callerID sent, inquiries and
// replies alike, each with the replies addressed to it.
func (s *ThreadService) ListOutboxWithReplies(ctx context.Context, callerID string) ([]OutboxMessage, error) {
	sent, err := s.store.FindMessages(ctx, store.MessageFilter{SenderID: callerID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	out := make([]OutboxMessage, 0, len(sent))
	if len(sent) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(sent))
	propertyIDs := make([]string, 0, len(sent))
	for _, m := range sent {
		ids = append(ids, m.ID)
		propertyIDs = append(propertyIDs, m.PropertyID)
	}

	props, err := s.store.FindProperties(ctx, propertyIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	titles := make(map[string]string, len(props))
	for _, p := range props {
		titles[p.ID] = p.Title
	}

	replies, err := s.store.FindMessages(ctx, store.MessageFilter{ParentIDs: ids})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	views, err := s.replyViews(ctx, replies)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]ReplyView, len(sent))
	for _, v := range views {
		parent := *v.ParentMessage
		byParent[parent] = append(byParent[parent], v)
	}

	for _, m := range sent {
		attached := byParent[m.ID]
		if attached == nil {
			attached = []ReplyView{}
		}
		out = append(out, OutboxMessage{
			ID:            m.ID,
			Property:      PropertyRef{ID: m.PropertyID, Title: titles[m.PropertyID]},
			SenderID:      m.SenderID,
			ReceiverID:    m.ReceiverID,
			Message:       m.Message,
			IsReply:       m.IsReply,
			ParentMessage: m.ParentMessageID,
			Replies:       attached,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

// ListRepliesTo returns the direct replies to messageID. An empty result is
// reported as not found, whether or not the message exists.
func (s *ThreadService) ListRepliesTo(ctx context.Context, callerID, messageID string) ([]ReplyView, error) {
	if s.enforce {
		parent, err := s.findMessage(ctx, messageID)
		if err != nil {
			return nil, err
		}
		owner, receiver, err := s.threadParties(ctx, parent)
		if err != nil {
			return nil, err
		}
		if !isParticipant(callerID, owner, parent.SenderID, receiver) {
			return nil, apperrors.Forbidden("You are not a participant in this conversation")
		}
	}

	replies, err := s.store.FindMessages(ctx, store.MessageFilter{ParentIDs: []string{messageID}})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(replies) == 0 {
		return nil, apperrors.NotFound("No replies found for this message.")
	}
	return s.replyViews(ctx, replies)
}

func (s *ThreadService) findMessage(ctx context.Context, id string) (*models.Message, error) {
	m, err := s.store.FindMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Message not found")
		}
		return nil, apperrors.Internal(err)
	}
	return m, nil
}

// threadParties returns the property owner and the effective receiver of m.
// An inquiry stores no receiver; it is addressed to the property owner. The
// owner is only looked up when it is needed.
func (s *ThreadService) threadParties(ctx context.Context, m *models.Message) (owner, receiver string, err error) {
	receiver = m.Receiver()
	if receiver != "" && !s.enforce {
		return "", receiver, nil
	}

	property, err := s.store.FindProperty(ctx, m.PropertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", apperrors.NotFound("Property not found")
		}
		return "", "", apperrors.Internal(err)
	}
	if receiver == "" {
		receiver = property.OwnerID
	}
	return property.OwnerID, receiver, nil
}

func (s *ThreadService) replyViews(ctx context.Context, replies []models.Message) ([]ReplyView, error) {
	senders, err := s.usersByID(ctx, senderIDs(replies))
	if err != nil {
		return nil, err
	}

	views := make([]ReplyView, 0, len(replies))
	for _, r := range replies {
		sender := senders[r.SenderID]
		views = append(views, ReplyView{
			ID:            r.ID,
			PropertyID:    r.PropertyID,
			Sender:        UserRef{ID: r.SenderID, Name: sender.Name, Email: sender.Email},
			ReceiverID:    r.ReceiverID,
			Message:       r.Message,
			IsReply:       r.IsReply,
			ParentMessage: r.ParentMessageID,
			Replies:       nonNil(r.Replies),
			CreatedAt:     r.CreatedAt,
		})
	}
	return views, nil
}

func (s *ThreadService) usersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	users, err := s.store.FindUsers(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *ThreadService) invalidateInbox(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		logger.Warn().Err(err).Str("owner_id", ownerID).Msg("Inbox cache invalidation failed")
	}
}

func (s *ThreadService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		metrics.EventPublishFailures.WithLabelValues(ev.Type).Inc()
		logger.Warn().Err(err).
			Str("type", ev.Type).
			Str("message_id", ev.MessageID).
			Msg("Failed to publish message event")
	}
}

func isParticipant(callerID string, parties ...string) bool {
	for _, p := range parties {
		if p != "" && p == callerID {
			return true
		}
	}
	return false
}

func senderIDs(msgs []models.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	return ids
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrEmptyMessage):
		return "Message cannot be empty"
	case errors.Is(err, utils.ErrMessageTooLong):
		return "Message exceeds maximum length"
	}
	return "Invalid message"
}
