package model

import "time"

type Contact struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	PhoneNumber    string    `db:"phone_number"`
	BirthDate      time.Time `db:"birth_date"`
	AdditionalInfo *string   `db:"additional_info"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
