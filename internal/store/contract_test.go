package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seedingStore interface {
	store.Store
	store.Seeder
}

func strPtr(s string) *string { return &s }

// runStoreContract checks the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, s seedingStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	owner := &models.User{ID: uuid.NewString(), Name: "Bea Owner", Email: "bea@example.com", CreatedAt: base}
	tenant := &models.User{ID: uuid.NewString(), Name: "Alex Tenant", Email: "alex@example.com", CreatedAt: base}
	require.NoError(t, s.SeedUser(ctx, owner))
	require.NoError(t, s.SeedUser(ctx, tenant))

	loft := &models.Property{ID: uuid.NewString(), OwnerID: owner.ID, Title: "Sunny Loft", CreatedAt: base}
	barn := &models.Property{ID: uuid.NewString(), OwnerID: owner.ID, Title: "Converted Barn", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.SeedProperty(ctx, loft))
	require.NoError(t, s.SeedProperty(ctx, barn))

	t.Run("properties", func(t *testing.T) {
		p, err := s.FindProperty(ctx, loft.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sunny Loft", p.Title)
		assert.Equal(t, owner.ID, p.OwnerID)

		_, err = s.FindProperty(ctx, uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)

		owned, err := s.FindPropertiesByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, loft.ID, owned[0].ID)
		assert.Equal(t, barn.ID, owned[1].ID)

		none, err := s.FindPropertiesByOwner(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Empty(t, none)

		byID, err := s.FindProperties(ctx, []string{barn.ID, barn.ID, ""})
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, "Converted Barn", byID[0].Title)
	})

	t.Run("users", func(t *testing.T) {
		users, err := s.FindUsers(ctx, []string{owner.ID, tenant.ID, owner.ID})
		require.NoError(t, err)
		assert.Len(t, users, 2)

		users, err = s.FindUsers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)

		// Seeding again updates in place.
		renamed := *tenant
		renamed.Name = "Alex T."
		require.NoError(t, s.SeedUser(ctx, &renamed))
		users, err = s.FindUsers(ctx, []string{tenant.ID})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Alex T.", users[0].Name)
	})

	inquiry := &models.Message{
		ID:         uuid.NewString(),
		PropertyID: loft.ID,
		SenderID:   tenant.ID,
		Message:    "Is this available?",
		CreatedAt:  base.Add(2 * time.Hour),
	}
	barnInquiry := &models.Message{
		ID:         uuid.NewString(),
		PropertyID: barn.ID,
		SenderID:   tenant.ID,
		Message:    "Is the barn heated?",
		CreatedAt:  base.Add(3 * time.Hour),
	}

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, s.CreateMessage(ctx, inquiry))
		require.NoError(t, s.CreateMessage(ctx, barnInquiry))

		got, err := s.FindMessage(ctx, inquiry.ID)
		require.NoError(t, err)
		assert.Equal(t, "Is this available?", got.Message)
		assert.False(t, got.IsReply)
		assert.Nil(t, got.ReceiverID)
		assert.Nil(t, got.ParentMessageID)
		assert.NotNil(t, got.Replies)
		assert.Empty(t, got.Replies)
		assert.True(t, inquiry.CreatedAt.Equal(got.CreatedAt))

		_, err = s.FindMessage(ctx, uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	var firstReply, secondReply *models.Message
	t.Run("create reply", func(t *testing.T) {
		parent, err := s.FindMessage(ctx, inquiry.ID)
		require.NoError(t, err)

		firstReply = &models.Message{
			ID:              uuid.NewString(),
			PropertyID:      loft.ID,
			SenderID:        owner.ID,
			ReceiverID:      strPtr(tenant.ID),
			Message:         "Yes",
			IsReply:         true,
			ParentMessageID: strPtr(inquiry.ID),
			CreatedAt:       base.Add(4 * time.Hour),
		}
		require.NoError(t, s.CreateReply(ctx, parent, firstReply))
		assert.Equal(t, []string{firstReply.ID}, parent.Replies)

		secondReply = &models.Message{
			ID:              uuid.NewString(),
			PropertyID:      loft.ID,
			SenderID:        owner.ID,
			ReceiverID:      strPtr(tenant.ID),
			Message:         "Viewings on Saturday",
			IsReply:         true,
			ParentMessageID: strPtr(inquiry.ID),
			CreatedAt:       base.Add(5 * time.Hour),
		}
		require.NoError(t, s.CreateReply(ctx, parent, secondReply))

		reloaded, err := s.FindMessage(ctx, inquiry.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{firstReply.ID, secondReply.ID}, reloaded.Replies)

		got, err := s.FindMessage(ctx, firstReply.ID)
		require.NoError(t, err)
		assert.True(t, got.IsReply)
		assert.Equal(t, inquiry.ID, got.Parent())
		assert.Equal(t, tenant.ID, got.Receiver())
	})

	t.Run("reply to missing parent", func(t *testing.T) {
		ghost := &models.Message{ID: uuid.NewString(), PropertyID: loft.ID}
		orphan := &models.Message{
			ID:              uuid.NewString(),
			PropertyID:      loft.ID,
			SenderID:        owner.ID,
			ReceiverID:      strPtr(tenant.ID),
			Message:         "Hello?",
			IsReply:         true,
			ParentMessageID: strPtr(ghost.ID),
			CreatedAt:       base.Add(6 * time.Hour),
		}
		err := s.CreateReply(ctx, ghost, orphan)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.FindMessage(ctx, orphan.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("filters", func(t *testing.T) {
		top, err := s.FindMessages(ctx, store.MessageFilter{
			PropertyIDs:  []string{loft.ID, barn.ID},
			TopLevelOnly: true,
		})
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, inquiry.ID, top[0].ID)
		assert.Equal(t, barnInquiry.ID, top[1].ID)
		assert.Equal(t, []string{firstReply.ID, secondReply.ID}, top[0].Replies)

		all, err := s.FindMessages(ctx, store.MessageFilter{PropertyIDs: []string{loft.ID}})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		sent, err := s.FindMessages(ctx, store.MessageFilter{SenderID: owner.ID})
		require.NoError(t, err)
		require.Len(t, sent, 2)
		assert.Equal(t, firstReply.ID, sent[0].ID)

		replies, err := s.FindMessages(ctx, store.MessageFilter{ParentIDs: []string{inquiry.ID, barnInquiry.ID}})
		require.NoError(t, err)
		require.Len(t, replies, 2)
		assert.Equal(t, firstReply.ID, replies[0].ID)
		assert.Equal(t, secondReply.ID, replies[1].ID)

		none, err := s.FindMessages(ctx, store.MessageFilter{ParentIDs: []string{barnInquiry.ID}})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
