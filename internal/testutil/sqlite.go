// Package testutil builds throwaway stores and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/database"
	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/internal/store"
	"github.com/stretchr/testify/require"
)

// NewSQLiteStore returns a GormStore over a private in-memory database.
func NewSQLiteStore(t *testing.T) *store.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	s := store.NewGormStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Fixture is a small rental market: Owner lists Loft, Other lists Flat and
// Tenant is looking.
type Fixture struct {
	Owner  models.User
	Tenant models.User
	Other  models.User

	Loft models.Property
	Flat models.Property
}

func Seed(t *testing.T, s *store.GormStore) Fixture {
	t.Helper()

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	f := Fixture{
		Owner:  models.User{ID: uuid.NewString(), Name: "Bea Owner", Email: "bea@example.com", CreatedAt: base},
		Tenant: models.User{ID: uuid.NewString(), Name: "Alex Tenant", Email: "alex@example.com", CreatedAt: base},
		Other:  models.User{ID: uuid.NewString(), Name: "Casey Other", Email: "casey@example.com", CreatedAt: base},
	}
	f.Loft = models.Property{ID: uuid.NewString(), OwnerID: f.Owner.ID, Title: "Sunny Loft", CreatedAt: base}
	f.Flat = models.Property{ID: uuid.NewString(), OwnerID: f.Other.ID, Title: "Harbor Flat", CreatedAt: base.Add(time.Minute)}

	db := s.DB()
	for _, u := range []*models.User{&f.Owner, &f.Tenant, &f.Other} {
		require.NoError(t, db.Create(u).Error)
	}
	for _, p := range []*models.Property{&f.Loft, &f.Flat} {
		require.NoError(t, db.Create(p).Error)
	}
	return f
}

// Clock returns a time source that advances one second per call, so
// messages created in sequence never share a timestamp.
func Clock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}
