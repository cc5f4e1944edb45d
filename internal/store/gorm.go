package store

import (
	"context"
	"errors"

	"github.com/pushp314/rental-messaging-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps records in a relational database. The replies list of a
// message is derived from parent_message_id rather than stored.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for migrations and seeding.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) FindProperty(ctx context.Context, id string) (*models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var p models.Property
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) FindPropertiesByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var props []models.Property
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc, id asc").
		Find(&props).Error
	return props, err
}

func (s *GormStore) FindProperties(ctx context.Context, ids []string) ([]models.Property, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var props []models.Property
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&props).Error
	return props, err
}

func (s *GormStore) FindUsers(ctx context.Context, ids []string) ([]models.User, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var users []models.User
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (s *GormStore) FindMessage(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var m models.Message
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	msgs := []models.Message{m}
	if err := s.attachReplyIDs(ctx, s.db, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (s *GormStore) FindMessages(ctx context.Context, filter MessageFilter) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := s.db.WithContext(ctx).Model(&models.Message{})
	if len(filter.PropertyIDs) > 0 {
		q = q.Where("property_id IN ?", filter.PropertyIDs)
	}
	if filter.SenderID != "" {
		q = q.Where("sender_id = ?", filter.SenderID)
	}
	if len(filter.ParentIDs) > 0 {
		q = q.Where("parent_message_id IN ?", filter.ParentIDs)
	}
	if filter.TopLevelOnly {
		q = q.Where("is_reply = ?", false)
	}

	var msgs []models.Message
	if err := q.Order("created_at asc, id asc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	if err := s.attachReplyIDs(ctx, s.db, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	if m.Replies == nil {
		m.Replies = []string{}
	}
	return nil
}

// CreateReply inserts the reply inside a transaction that first re-reads the
// parent, so a reply can never point at a missing message.
func (s *GormStore) CreateReply(ctx context.Context, parent, reply *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Message{}).Where("id = ?", parent.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return tx.Create(reply).Error
	})
	if err != nil {
		return err
	}

	if reply.Replies == nil {
		reply.Replies = []string{}
	}
	parent.Replies = append(parent.Replies, reply.ID)
	return nil
}

func (s *GormStore) attachReplyIDs(ctx context.Context, db *gorm.DB, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	ids := make([]string, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
		msgs[i].Replies = []string{}
	}

	var children []models.Message
	err := db.WithContext(ctx).
		Select("id", "parent_message_id", "created_at").
		Where("parent_message_id IN ?", ids).
		Order("created_at asc, id asc").
		Find(&children).Error
	if err != nil {
		return err
	}

	byParent := make(map[string][]string, len(msgs))
	for _, c := range children {
		byParent[c.Parent()] = append(byParent[c.Parent()], c.ID)
	}
	for i := range msgs {
		if r, ok := byParent[msgs[i].ID]; ok {
			msgs[i].Replies = r
		}
	}
	return nil
}

// SeedUser upserts an account record. Used by the seeder and tests.
func (s *GormStore) SeedUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(u).Error
}

// SeedProperty upserts a listing record. Used by the seeder and tests.
func (s *GormStore) SeedProperty(ctx context.Context, p *models.Property) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(p).Error
}
