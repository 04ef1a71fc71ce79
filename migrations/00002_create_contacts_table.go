package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateContactsTable, downCreateContactsTable)
}

func upCreateContactsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			birth_date DATE NOT NULL,
			additional_info TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			UNIQUE (user_id, email),
			UNIQUE (user_id, phone_number)
		);

		CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
	`)
	return err
}

func downCreateContactsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS contacts;`)
	return err
}
