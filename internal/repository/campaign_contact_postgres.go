package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
)

// CampaignContactRepository implements domain.CampaignContactRepository
type CampaignContactRepository struct {
	exec executor
}

func campaignContactSelectFields() string {
	return `id, campaign_id, contact_id, message_id, status, error_message,
			retry_count, can_send_after, created_at, updated_at`
}

func scanCampaignContact(scanner interface {
	Scan(dest ...interface{}) error
}, link *domain.CampaignContact) error {
	var messageID uuid.NullUUID
	var errorMessage sql.NullString
	err := scanner.Scan(
		&link.ID,
		&link.CampaignID,
		&link.ContactID,
		&messageID,
		&link.Status,
		&errorMessage,
		&link.RetryCount,
		&link.CanSendAfter,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if messageID.Valid {
		link.MessageID = &messageID.UUID
	}
	link.ErrorMessage = errorMessage.String
	return nil
}

// sendableWhere is the predicate for links still eligible for a send
// attempt: never attempted, failed before any attempt completed, or
// deferred by the messaging window with an elapsed can_send_after.
func sendableWhere(campaignID uuid.UUID, now time.Time) sq.Sqlizer {
	return sq.And{
		sq.Eq{"campaign_id": campaignID},
		sq.Or{
			sq.Eq{"status": domain.DeliveryStatusQueued},
			sq.And{
				sq.Eq{"status": domain.DeliveryStatusFailed},
				sq.Eq{"retry_count": 0},
			},
			sq.And{
				sq.Eq{"status": domain.DeliveryStatusScheduled},
				sq.LtOrEq{"can_send_after": now},
			},
		},
	}
}

// GetByID retrieves a delivery link by its ID
func (r *CampaignContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignContact, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_contacts WHERE id = $1`, campaignContactSelectFields())

	link := &domain.CampaignContact{}
	err := scanCampaignContact(r.exec.QueryRowContext(ctx, query, id), link)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign contact: %w", err)
	}
	return link, nil
}

// GetByMessageID retrieves the delivery link owning a message, if any
func (r *CampaignContactRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*domain.CampaignContact, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_contacts WHERE message_id = $1`, campaignContactSelectFields())

	link := &domain.CampaignContact{}
	err := scanCampaignContact(r.exec.QueryRowContext(ctx, query, messageID), link)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: messageID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign contact by message: %w", err)
	}
	return link, nil
}

// CreateBatch inserts delivery links in bulk. The unique
// (campaign_id, contact_id) constraint surfaces duplicates as a conflict.
func (r *CampaignContactRepository) CreateBatch(ctx context.Context, links []*domain.CampaignContact) error {
	if len(links) == 0 {
		return nil
	}

	builder := psql.
		Insert("campaign_contacts").
		Columns("id", "campaign_id", "contact_id", "message_id", "status",
			"error_message", "retry_count", "can_send_after", "created_at", "updated_at")

	for _, link := range links {
		builder = builder.Values(
			link.ID,
			link.CampaignID,
			link.ContactID,
			link.MessageID,
			link.Status,
			nullString(link.ErrorMessage),
			link.RetryCount,
			link.CanSendAfter,
			link.CreatedAt,
			link.UpdatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create campaign contacts: %w", err)
	}
	return nil
}

// Update persists the mutable link fields
func (r *CampaignContactRepository) Update(ctx context.Context, link *domain.CampaignContact) error {
	query := `
		UPDATE campaign_contacts SET
			message_id = $2, status = $3, error_message = LEFT($4, 500),
			retry_count = $5, can_send_after = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.exec.ExecContext(ctx, query,
		link.ID,
		link.MessageID,
		link.Status,
		nullString(link.ErrorMessage),
		link.RetryCount,
		link.CanSendAfter,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "campaign contact", ID: link.ID.String()}
	}
	return nil
}

// GetSendable pages through links still eligible for a send attempt
func (r *CampaignContactRepository) GetSendable(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*domain.CampaignContact, error) {
	query, args, err := psql.
		Select(campaignContactSelectFields()).
		From("campaign_contacts").
		Where(sendableWhere(campaignID, time.Now().UTC())).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get sendable contacts: %w", err)
	}
	defer rows.Close()

	var links []*domain.CampaignContact
	for rows.Next() {
		link := &domain.CampaignContact{}
		if err := scanCampaignContact(rows, link); err != nil {
			return nil, fmt.Errorf("failed to scan campaign contact: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CountRemaining counts links that still block campaign completion.
// FAILED links with retry_count >= 1 are exhausted and excluded; deferred
// SCHEDULED links still count even before their can_send_after elapses.
func (r *CampaignContactRepository) CountRemaining(ctx context.Context, campaignID uuid.UUID) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("campaign_contacts").
		Where(sq.And{
			sq.Eq{"campaign_id": campaignID},
			sq.Or{
				sq.Eq{"status": domain.DeliveryStatusQueued},
				sq.Eq{"status": domain.DeliveryStatusScheduled},
				sq.And{
					sq.Eq{"status": domain.DeliveryStatusFailed},
					sq.Eq{"retry_count": 0},
				},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := r.exec.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count remaining contacts: %w", err)
	}
	return count, nil
}

// GetLatestSentForContact returns the most recently sent link for a contact
func (r *CampaignContactRepository) GetLatestSentForContact(ctx context.Context, contactID uuid.UUID) (*domain.CampaignContact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM campaign_contacts
		WHERE contact_id = $1 AND message_id IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`, campaignContactSelectFields())

	link := &domain.CampaignContact{}
	err := scanCampaignContact(r.exec.QueryRowContext(ctx, query, contactID), link)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: contactID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest sent contact: %w", err)
	}
	return link, nil
}
