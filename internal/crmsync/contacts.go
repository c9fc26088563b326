package crmsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// Contacts are plain remote CRUD: they are not mirrored in the store.

var ErrContactNameRequired = fmt.Errorf("%w: contact name is required", ErrValidation)

func contactInput(c models.Contact) api.ContactInput {
	status := string(c.Status)
	if status == "" {
		status = string(models.ContactLead)
	}
	return api.ContactInput{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   format.Digits(c.Phone),
		Company: c.Company,
		Segment: c.Segment,
		Status:  status,
		Notes:   c.Notes,
	}
}

func (s *Service) ListContacts(ctx context.Context) ([]models.Contact, error) {
	list, err := s.remote.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	out := make([]models.Contact, 0, len(list))
	for _, c := range list {
		out = append(out, contactFromAPI(c))
	}
	return out, nil
}

func (s *Service) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	if strings.TrimSpace(c.Name) == "" {
		return models.Contact{}, ErrContactNameRequired
	}
	created, err := s.remote.CreateContact(ctx, contactInput(c))
	if err != nil {
		return models.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contactFromAPI(created), nil
}

func (s *Service) UpdateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	if strings.TrimSpace(c.Name) == "" {
		return models.Contact{}, ErrContactNameRequired
	}
	updated, err := s.remote.UpdateContact(ctx, c.ID, contactInput(c))
	if err != nil {
		return models.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	if updated.ID == "" {
		return c, nil
	}
	return contactFromAPI(updated), nil
}

func (s *Service) DeleteContact(ctx context.Context, id string) error {
	if err := s.remote.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}
