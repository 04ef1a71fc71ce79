package service

import (
	"context"
	"errors"
	"time"

	"contacts-service/internal/model"
	"contacts-service/internal/repository"
)

var (
	ErrContactNotFound  = errors.New("contact not found")
	ErrDuplicateContact = errors.New("a contact with this email or phone number already exists")
)

// BirthdayWindowDays is how far ahead UpcomingBirthdays looks, today included.
const BirthdayWindowDays = 7

type ContactService interface {
	Create(ctx context.Context, ownerID int64, contact *model.Contact) (*model.Contact, error)
	List(ctx context.Context, ownerID int64) ([]model.Contact, error)
	Get(ctx context.Context, ownerID, contactID int64) (*model.Contact, error)
	Update(ctx context.Context, ownerID, contactID int64, contact *model.Contact) (*model.Contact, error)
	Delete(ctx context.Context, ownerID, contactID int64) error
	Search(ctx context.Context, ownerID int64, query string) ([]model.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64) ([]model.Contact, error)
}

type contactService struct {
	contacts repository.ContactRepository
	now      func() time.Time
}

func NewContactService(contacts repository.ContactRepository) ContactService {
	return &contactService{contacts: contacts, now: time.Now}
}

func (s *contactService) Create(ctx context.Context, ownerID int64, contact *model.Contact) (*model.Contact, error) {
	taken, err := s.contacts.ExistsByEmailOrPhone(ctx, ownerID, contact.Email, contact.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateContact
	}

	contact.UserID = ownerID
	newID, err := s.contacts.Create(ctx, contact)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateContact
		}
		return nil, err
	}
	contact.ID = newID

	return contact, nil
}

func (s *contactService) List(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	return s.contacts.ListByUser(ctx, ownerID)
}

func (s *contactService) Get(ctx context.Context, ownerID, contactID int64) (*model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

func (s *contactService) Update(ctx context.Context, ownerID, contactID int64, contact *model.Contact) (*model.Contact, error) {
	existing, err := s.contacts.FindByID(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrContactNotFound
	}

	contact.ID = contactID
	contact.UserID = ownerID
	if err := s.contacts.Update(ctx, contact); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateContact
		}
		return nil, err
	}

	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, ownerID, contactID int64) error {
	deleted, err := s.contacts.Delete(ctx, ownerID, contactID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrContactNotFound
	}
	return nil
}

func (s *contactService) Search(ctx context.Context, ownerID int64, query string) ([]model.Contact, error) {
	return s.contacts.Search(ctx, ownerID, query)
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	all, err := s.contacts.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	upcoming := []model.Contact{}
	for _, c := range all {
		if birthdayInWindow(c.BirthDate, today, BirthdayWindowDays) {
			upcoming = append(upcoming, c)
		}
	}

	return upcoming, nil
}

// birthdayInWindow reports whether the month/day of birth falls within the
// next windowDays days starting at now, ignoring the birth year. The window
// wraps across year boundaries. A Feb 29 birth date normalizes to Mar 1 in
// non-leap years.
func birthdayInWindow(birth, now time.Time, windowDays int) bool {
	year := now.Year()
	start := time.Date(year, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, y := range []int{year, year + 1} {
		next := time.Date(y, birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
		days := int(next.Sub(start).Hours() / 24)
		if days >= 0 && days < windowDays {
			return true
		}
	}

	return false
}
