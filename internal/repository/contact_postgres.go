package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
)

// ContactRepository implements domain.ContactRepository
type ContactRepository struct {
	exec executor
}

func contactSelectFields() string {
	return `id, phone_number, status, last_message_at, unread_count, created_at, updated_at`
}

func scanContact(scanner interface {
	Scan(dest ...interface{}) error
}, contact *domain.Contact) error {
	var status sql.NullString
	err := scanner.Scan(
		&contact.ID,
		&contact.PhoneNumber,
		&status,
		&contact.LastMessageAt,
		&contact.UnreadCount,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return err
	}

	contact.Status = domain.DeliveryStatus(status.String)
	return nil
}

// GetByID retrieves a contact by its ID
func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1`, contactSelectFields())

	contact := &domain.Contact{}
	err := scanContact(r.exec.QueryRowContext(ctx, query, id), contact)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "contact", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// GetByPhoneNumber retrieves a contact by its phone number
func (r *ContactRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE phone_number = $1`, contactSelectFields())

	contact := &domain.Contact{}
	err := scanContact(r.exec.QueryRowContext(ctx, query, phoneNumber), contact)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "contact", ID: phoneNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}
	return contact, nil
}

// Create adds a new contact
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, phone_number, status, last_message_at, unread_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.exec.ExecContext(ctx, query,
		contact.ID,
		contact.PhoneNumber,
		nullString(string(contact.Status)),
		contact.LastMessageAt,
		contact.UnreadCount,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Update persists the mutable contact fields
func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts SET
			status = $2, last_message_at = $3, unread_count = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.exec.ExecContext(ctx, query,
		contact.ID,
		nullString(string(contact.Status)),
		contact.LastMessageAt,
		contact.UnreadCount,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "contact", ID: contact.ID.String()}
	}
	return nil
}
