package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"contacts-service/internal/model"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Contact, error)
	FindByID(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, userID, contactID int64) (bool, error)
	Search(ctx context.Context, userID int64, query string) ([]model.Contact, error)
	ExistsByEmailOrPhone(ctx context.Context, userID int64, email, phone string) (bool, error)
}

type postgresContactRepository struct {
	db *sqlx.DB
}

func NewPostgresContactRepository(db *sqlx.DB) ContactRepository {
	return &postgresContactRepository{db: db}
}

func (r *postgresContactRepository) Create(ctx context.Context, contact *model.Contact) (int64, error) {
	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birth_date, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var newID int64
	err := r.db.QueryRowxContext(ctx, query,
		contact.UserID, contact.FirstName, contact.LastName,
		contact.Email, contact.PhoneNumber, contact.BirthDate, contact.AdditionalInfo,
	).Scan(&newID)

	if err != nil {
		return 0, err
	}

	return newID, nil
}

func (r *postgresContactRepository) ListByUser(ctx context.Context, userID int64) ([]model.Contact, error) {
	contacts := []model.Contact{}
	query := `SELECT id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at
		FROM contacts WHERE user_id = $1 ORDER BY id`
	err := r.db.SelectContext(ctx, &contacts, query, userID)

	if err != nil {
		return nil, err
	}

	return contacts, nil
}

// FindByID returns (nil, nil) when the contact is absent or owned by someone else.
func (r *postgresContactRepository) FindByID(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	var contact model.Contact
	query := `SELECT id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at
		FROM contacts WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &contact, query, contactID, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func (r *postgresContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `UPDATE contacts
		SET first_name = $1, last_name = $2, email = $3, phone_number = $4, birth_date = $5, additional_info = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8`
	_, err := r.db.ExecContext(ctx, query,
		contact.FirstName, contact.LastName, contact.Email,
		contact.PhoneNumber, contact.BirthDate, contact.AdditionalInfo,
		contact.ID, contact.UserID,
	)
	return err
}

func (r *postgresContactRepository) Delete(ctx context.Context, userID, contactID int64) (bool, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, contactID, userID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresContactRepository) Search(ctx context.Context, userID int64, query string) ([]model.Contact, error) {
	contacts := []model.Contact{}
	pattern := "%" + query + "%"
	q := `SELECT id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at
		FROM contacts
		WHERE user_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id`
	err := r.db.SelectContext(ctx, &contacts, q, userID, pattern)

	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *postgresContactRepository) ExistsByEmailOrPhone(ctx context.Context, userID int64, email, phone string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM contacts WHERE user_id = $1 AND (email = $2 OR phone_number = $3)`
	err := r.db.GetContext(ctx, &count, query, userID, email, phone)

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
