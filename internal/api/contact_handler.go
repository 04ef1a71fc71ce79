package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"contacts-service/internal/model"
	"contacts-service/internal/service"
)

type ContactHandler struct {
	contactService service.ContactService
	validate       *validator.Validate
}

func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		validate:       validator.New(),
	}
}

const birthDateLayout = "2006-01-02"

type ContactRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	PhoneNumber    string  `json:"phone_number" validate:"required"`
	BirthDate      string  `json:"birth_date" validate:"required"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

type ContactResponse struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phone_number"`
	BirthDate      string  `json:"birth_date"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

func (h *ContactHandler) parseContact(c *fiber.Ctx) (*model.Contact, error) {
	var request ContactRequest

	if err := c.BodyParser(&request); err != nil {
		return nil, errors.New("Cannot parse JSON")
	}

	if err := h.validate.Struct(&request); err != nil {
		return nil, err
	}

	birthDate, err := time.Parse(birthDateLayout, request.BirthDate)
	if err != nil {
		return nil, errors.New("birth_date must be formatted as YYYY-MM-DD")
	}

	return &model.Contact{
		FirstName:      request.FirstName,
		LastName:       request.LastName,
		Email:          request.Email,
		PhoneNumber:    request.PhoneNumber,
		BirthDate:      birthDate,
		AdditionalInfo: request.AdditionalInfo,
	}, nil
}

func contactResponse(contact *model.Contact) ContactResponse {
	return ContactResponse{
		ID:             contact.ID,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		PhoneNumber:    contact.PhoneNumber,
		BirthDate:      contact.BirthDate.Format(birthDateLayout),
		AdditionalInfo: contact.AdditionalInfo,
	}
}

func contactListResponse(contacts []model.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, contactResponse(&contacts[i]))
	}
	return out
}

func (h *ContactHandler) Create(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contact, err := h.parseContact(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	created, err := h.contactService.Create(c.Context(), user.ID, contact)

	if err != nil {
		if errors.Is(err, service.ErrDuplicateContact) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(contactResponse(created))
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contacts, err := h.contactService.List(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(contactListResponse(contacts))
}

func (h *ContactHandler) Get(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	contact, err := h.contactService.Get(c.Context(), user.ID, int64(contactID))

	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contact not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(contactResponse(contact))
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	contact, err := h.parseContact(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	updated, err := h.contactService.Update(c.Context(), user.ID, int64(contactID), contact)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contact not found"})
		case errors.Is(err, service.ErrDuplicateContact):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(contactResponse(updated))
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	err = h.contactService.Delete(c.Context(), user.ID, int64(contactID))

	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contact not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Contact deleted successfully"})
}

func (h *ContactHandler) Search(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Query parameter 'q' is required"})
	}

	contacts, err := h.contactService.Search(c.Context(), user.ID, query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(contactListResponse(contacts))
}

func (h *ContactHandler) Birthdays(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	contacts, err := h.contactService.UpcomingBirthdays(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(contactListResponse(contacts))
}
