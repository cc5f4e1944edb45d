package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddParentMessageFK makes parent_message_id a real foreign key
// so a reply can never point at a missing message. SQLite cannot add
// constraints to an existing table, so this only runs on postgres.
func Migration002AddParentMessageFK() Migration {
	return Migration{
		ID:        "002_add_parent_message_fk",
		Name:      "Add foreign key constraint for message reply threading",
		DependsOn: []string{"001_add_thread_indexes"},
		Dialects:  []string{"postgres"},
		Up: func(db *gorm.DB) error {
			var count int64
			checkSQL := `
				SELECT COUNT(*)
				FROM information_schema.table_constraints
				WHERE constraint_name = 'fk_messages_parent_message'
				AND table_name = 'messages'
			`
			if err := db.Raw(checkSQL).Scan(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			// Replies written before the constraint may reference ids that
			// never existed. Removing one can orphan its own replies, so
			// repeat until a pass deletes nothing.
			orphansSQL := `
				DELETE FROM messages
				WHERE parent_message_id IS NOT NULL
				AND parent_message_id NOT IN (SELECT id FROM messages)
			`
			for {
				res := db.Exec(orphansSQL)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					break
				}
			}

			return db.Exec(`
				ALTER TABLE messages
				ADD CONSTRAINT fk_messages_parent_message
				FOREIGN KEY (parent_message_id)
				REFERENCES messages(id)
				ON DELETE RESTRICT
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`
				ALTER TABLE messages
				DROP CONSTRAINT IF EXISTS fk_messages_parent_message
			`).Error
		},
	}
}
