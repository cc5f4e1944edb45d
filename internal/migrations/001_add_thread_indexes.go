package migrations

import (
	"gorm.io/gorm"
)

var threadIndexes = []struct{ name, ddl string }{
	// Inbox: top-level messages on a set of properties, oldest first.
	{"idx_messages_property_reply_created", "messages (property_id, is_reply, created_at)"},
	// Outbox: everything one user sent.
	{"idx_messages_sender_created", "messages (sender_id, created_at)"},
	// Replies to a message, and the derived replies list.
	{"idx_messages_parent_created", "messages (parent_message_id, created_at)"},
	{"idx_properties_owner", "properties (owner_id)"},
}

// Migration001AddThreadIndexes adds the composite indexes behind the inbox,
// outbox and replies queries. Statements are idempotent.
func Migration001AddThreadIndexes() Migration {
	return Migration{
		ID:   "001_add_thread_indexes",
		Name: "Add composite indexes for thread queries",
		Up: func(db *gorm.DB) error {
			for _, idx := range threadIndexes {
				if err := db.Exec("CREATE INDEX IF NOT EXISTS " + idx.name + " ON " + idx.ddl).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			for _, idx := range threadIndexes {
				if err := db.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
