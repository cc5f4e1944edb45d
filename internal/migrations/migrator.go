package migrations

import (
	"fmt"
	"time"

	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"gorm.io/gorm"
)

// Migration represents a database migration
type Migration struct {
	ID        string // Unique identifier (e.g., "001_add_thread_indexes")
	Name      string // Human-readable name
	Up        func(db *gorm.DB) error
	Down      func(db *gorm.DB) error
	DependsOn []string // IDs of migrations this depends on

	// Dialects limits the migration to the named gorm dialects
	// ("postgres", "sqlite"). Empty means all.
	Dialects []string
}

func (m Migration) appliesTo(dialect string) bool {
	if len(m.Dialects) == 0 {
		return true
	}
	for _, d := range m.Dialects {
		if d == dialect {
			return true
		}
	}
	return false
}

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
	}
}

func (m *Migrator) applied() (map[string]bool, error) {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var records []MigrationRecord
	if err := m.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch applied migrations: %w", err)
	}

	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[r.ID] = true
	}
	return done, nil
}

// Run executes all pending migrations for the connected dialect. Migrations
// for other dialects are recorded as applied so dependants can run.
func (m *Migrator) Run() error {
	done, err := m.applied()
	if err != nil {
		return err
	}
	dialect := m.db.Dialector.Name()

	for _, migration := range m.migrations {
		if done[migration.ID] {
			continue
		}

		for _, dep := range migration.DependsOn {
			if !done[dep] {
				return fmt.Errorf("migration %s depends on %s which is not applied", migration.ID, dep)
			}
		}

		skip := !migration.appliesTo(dialect)
		if skip {
			logger.Info().Str("migration", migration.ID).Str("dialect", dialect).Msg("Skipping migration for dialect")
		} else {
			logger.Info().Str("migration", migration.ID).Str("name", migration.Name).Msg("Running migration")
		}

		if err := m.db.Transaction(func(tx *gorm.DB) error {
			if !skip {
				if err := migration.Up(tx); err != nil {
					return err
				}
			}
			return tx.Create(&MigrationRecord{
				ID:   migration.ID,
				Name: migration.Name,
			}).Error
		}); err != nil {
			logger.Error().Err(err).Str("migration", migration.ID).Msg("Migration failed")
			return fmt.Errorf("migration %s failed: %w", migration.ID, err)
		}

		done[migration.ID] = true
	}

	return nil
}

// Rollback reverts the most recently registered applied migration. It is a
// no-op when nothing has been applied.
func (m *Migrator) Rollback() error {
	done, err := m.applied()
	if err != nil {
		return err
	}
	dialect := m.db.Dialector.Name()

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if !done[migration.ID] {
			continue
		}

		logger.Info().Str("migration", migration.ID).Msg("Rolling back migration")
		return m.db.Transaction(func(tx *gorm.DB) error {
			if migration.appliesTo(dialect) && migration.Down != nil {
				if err := migration.Down(tx); err != nil {
					return err
				}
			}
			return tx.Delete(&MigrationRecord{ID: migration.ID}).Error
		})
	}
	return nil
}

// GetMigrations returns all registered migrations in order
func GetMigrations() []Migration {
	return []Migration{
		Migration001AddThreadIndexes(),
		Migration002AddParentMessageFK(),
	}
}
