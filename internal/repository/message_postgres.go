package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	exec executor
}

func messageSelectFields() string {
	return `id, waba_phone_id, contact_id, direction, status, kind, body,
			template_name, wamid, created_at, updated_at`
}

func scanMessage(scanner interface {
	Scan(dest ...interface{}) error
}, message *domain.Message) error {
	var body, templateName, wamid sql.NullString
	err := scanner.Scan(
		&message.ID,
		&message.WabaPhoneID,
		&message.ContactID,
		&message.Direction,
		&message.Status,
		&message.Kind,
		&body,
		&templateName,
		&wamid,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		return err
	}

	message.Body = body.String
	message.TemplateName = templateName.String
	message.Wamid = wamid.String
	return nil
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id = $1`, messageSelectFields())

	message := &domain.Message{}
	err := scanMessage(r.exec.QueryRowContext(ctx, query, id), message)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "message", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return message, nil
}

// GetByWamid retrieves a message by its provider-assigned id
func (r *MessageRepository) GetByWamid(ctx context.Context, wamid string) (*domain.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE wamid = $1`, messageSelectFields())

	message := &domain.Message{}
	err := scanMessage(r.exec.QueryRowContext(ctx, query, wamid), message)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "message", ID: wamid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by wamid: %w", err)
	}
	return message, nil
}

// Create adds a new message record
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (
			id, waba_phone_id, contact_id, direction, status, kind, body,
			template_name, wamid, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.exec.ExecContext(ctx, query,
		message.ID,
		message.WabaPhoneID,
		message.ContactID,
		message.Direction,
		message.Status,
		message.Kind,
		nullString(message.Body),
		nullString(message.TemplateName),
		nullString(message.Wamid),
		message.CreatedAt,
		message.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Update persists the mutable message fields
func (r *MessageRepository) Update(ctx context.Context, message *domain.Message) error {
	query := `
		UPDATE messages SET status = $2, wamid = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.exec.ExecContext(ctx, query,
		message.ID,
		message.Status,
		nullString(message.Wamid),
		message.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "message", ID: message.ID.String()}
	}
	return nil
}

// WabaPhoneRepository implements domain.WabaPhoneRepository
type WabaPhoneRepository struct {
	exec executor
}

func wabaPhoneSelectFields() string {
	return `id, phone_number, phone_number_id, is_default, created_at`
}

func scanWabaPhone(scanner interface {
	Scan(dest ...interface{}) error
}, phone *domain.WabaPhone) error {
	return scanner.Scan(
		&phone.ID,
		&phone.PhoneNumber,
		&phone.PhoneNumberID,
		&phone.IsDefault,
		&phone.CreatedAt,
	)
}

// GetDefault returns the default outbound phone, preferring the flagged
// default and falling back to the oldest registered number.
func (r *WabaPhoneRepository) GetDefault(ctx context.Context) (*domain.WabaPhone, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM waba_phones
		ORDER BY is_default DESC, created_at ASC
		LIMIT 1
	`, wabaPhoneSelectFields())

	phone := &domain.WabaPhone{}
	err := scanWabaPhone(r.exec.QueryRowContext(ctx, query), phone)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "waba phone", ID: "default"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default waba phone: %w", err)
	}
	return phone, nil
}

// List returns all registered provider phones
func (r *WabaPhoneRepository) List(ctx context.Context) ([]*domain.WabaPhone, error) {
	query := fmt.Sprintf(`SELECT %s FROM waba_phones ORDER BY created_at ASC`, wabaPhoneSelectFields())

	rows, err := r.exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list waba phones: %w", err)
	}
	defer rows.Close()

	var phones []*domain.WabaPhone
	for rows.Next() {
		phone := &domain.WabaPhone{}
		if err := scanWabaPhone(rows, phone); err != nil {
			return nil, fmt.Errorf("failed to scan waba phone: %w", err)
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}
