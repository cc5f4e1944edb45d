package store

import (
	"context"
	"errors"

	"github.com/pushp314/rental-messaging-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps users, properties and messages as documents. A parent
// message stores its reply ids in the replies array.
type MongoStore struct {
	client     *mongo.Client
	users      *mongo.Collection
	properties *mongo.Collection
	messages   *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{
		client:     db.Client(),
		users:      db.Collection("users"),
		properties: db.Collection("properties"),
		messages:   db.Collection("messages"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("property_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("sender_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "parent_message", Value: 1}},
			Options: options.Index().SetName("parent_idx").SetSparse(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.properties.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetName("owner_idx"),
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FindProperty(ctx context.Context, id string) (*models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var p models.Property
	if err := s.properties.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) FindPropertiesByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.properties.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	props := []models.Property{}
	if err := cur.All(ctx, &props); err != nil {
		return nil, err
	}
	return props, nil
}

func (s *MongoStore) FindProperties(ctx context.Context, ids []string) ([]models.Property, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := s.properties.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	props := []models.Property{}
	if err := cur.All(ctx, &props); err != nil {
		return nil, err
	}
	return props, nil
}

func (s *MongoStore) FindUsers(ctx context.Context, ids []string) ([]models.User, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "created_at": 1})
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) FindMessage(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var m models.Message
	if err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.Replies == nil {
		m.Replies = []string{}
	}
	return &m, nil
}

func (s *MongoStore) FindMessages(ctx context.Context, filter MessageFilter) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := bson.M{}
	if len(filter.PropertyIDs) > 0 {
		q["property_id"] = bson.M{"$in": filter.PropertyIDs}
	}
	if filter.SenderID != "" {
		q["sender_id"] = filter.SenderID
	}
	if len(filter.ParentIDs) > 0 {
		q["parent_message"] = bson.M{"$in": filter.ParentIDs}
	}
	if filter.TopLevelOnly {
		q["is_reply"] = bson.M{"$ne": true}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].Replies == nil {
			msgs[i].Replies = []string{}
		}
	}
	// Millisecond timestamps can tie; keep the id tiebreak stable.
	sortMessages(msgs)
	return msgs, nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if m.Replies == nil {
		m.Replies = []string{}
	}
	_, err := s.messages.InsertOne(ctx, m)
	return err
}

// CreateReply inserts the reply and pushes its id onto the parent. Without
// a replica set there is no multi-document transaction, so a failed push is
// compensated by deleting the inserted reply.
func (s *MongoStore) CreateReply(ctx context.Context, parent, reply *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if reply.Replies == nil {
		reply.Replies = []string{}
	}
	if _, err := s.messages.InsertOne(ctx, reply); err != nil {
		return err
	}

	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": parent.ID},
		bson.M{"$push": bson.M{"replies": reply.ID}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cleanupCancel()
		if _, delErr := s.messages.DeleteOne(cleanupCtx, bson.M{"_id": reply.ID}); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	parent.Replies = append(parent.Replies, reply.ID)
	return nil
}

// SeedUser upserts an account record. Used by the seeder and tests.
func (s *MongoStore) SeedUser(ctx context.Context, u *models.User) error {
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	return err
}

// SeedProperty upserts a listing record. Used by the seeder and tests.
func (s *MongoStore) SeedProperty(ctx context.Context, p *models.Property) error {
	_, err := s.properties.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	return err
}
