package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/models"
)

// ErrNotFound is returned by single-record lookups when nothing matches.
var ErrNotFound = errors.New("not found")

const (
	readTimeout  = 3 * time.Second
	queryTimeout = 5 * time.Second
	writeTimeout = 3 * time.Second
)

// MessageFilter selects messages. Empty fields do not constrain the query;
// callers skip the query instead of passing an empty id set.
type MessageFilter struct {
	PropertyIDs  []string
	SenderID     string
	ParentIDs    []string
	TopLevelOnly bool
}

// Store is the record store used by the threading service. Both GormStore
// and MongoStore implement it. Message lists come back ordered by creation
// time, then id.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	FindProperty(ctx context.Context, id string) (*models.Property, error)
	FindPropertiesByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	FindProperties(ctx context.Context, ids []string) ([]models.Property, error)
	FindUsers(ctx context.Context, ids []string) ([]models.User, error)

	FindMessage(ctx context.Context, id string) (*models.Message, error)
	FindMessages(ctx context.Context, filter MessageFilter) ([]models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error

	// CreateReply persists reply and links it into parent's replies list as
	// one unit: either both are visible afterwards or neither is. On success
	// parent.Replies includes reply.ID.
	CreateReply(ctx context.Context, parent, reply *models.Message) error
}

// Seeder is implemented by stores that can also write the externally owned
// user and property records. Only tooling and tests use it.
type Seeder interface {
	SeedUser(ctx context.Context, u *models.User) error
	SeedProperty(ctx context.Context, p *models.Property) error
}

var (
	_ Store  = (*GormStore)(nil)
	_ Store  = (*MongoStore)(nil)
	_ Seeder = (*GormStore)(nil)
	_ Seeder = (*MongoStore)(nil)
)

func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
