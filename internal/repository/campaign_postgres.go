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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CampaignRepository implements domain.CampaignRepository
type CampaignRepository struct {
	exec executor
}

func campaignSelectFields() string {
	return `id, name, message_kind, message_body, template_name, template_language,
			status, scheduled_at, started_at, completed_at, total_contacts,
			sent_count, delivered_count, read_count, failed_count, replied_count,
			messages_per_second, created_at, updated_at`
}

func scanCampaign(scanner interface {
	Scan(dest ...interface{}) error
}, campaign *domain.Campaign) error {
	var messageBody, templateName, templateLanguage sql.NullString
	err := scanner.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.MessageKind,
		&messageBody,
		&templateName,
		&templateLanguage,
		&campaign.Status,
		&campaign.ScheduledAt,
		&campaign.StartedAt,
		&campaign.CompletedAt,
		&campaign.TotalContacts,
		&campaign.SentCount,
		&campaign.DeliveredCount,
		&campaign.ReadCount,
		&campaign.FailedCount,
		&campaign.RepliedCount,
		&campaign.MessagesPerSecond,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return err
	}

	campaign.MessageBody = messageBody.String
	campaign.TemplateName = templateName.String
	campaign.TemplateLanguage = templateLanguage.String
	return nil
}

// GetByID retrieves a campaign by its ID
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignSelectFields())

	campaign := &domain.Campaign{}
	err := scanCampaign(r.exec.QueryRowContext(ctx, query, id), campaign)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "campaign", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// Create adds a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (
			id, name, message_kind, message_body, template_name, template_language,
			status, scheduled_at, started_at, completed_at, total_contacts,
			sent_count, delivered_count, read_count, failed_count, replied_count,
			messages_per_second, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)
	`
	_, err := r.exec.ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.MessageKind,
		nullString(campaign.MessageBody),
		nullString(campaign.TemplateName),
		nullString(campaign.TemplateLanguage),
		campaign.Status,
		campaign.ScheduledAt,
		campaign.StartedAt,
		campaign.CompletedAt,
		campaign.TotalContacts,
		campaign.SentCount,
		campaign.DeliveredCount,
		campaign.ReadCount,
		campaign.FailedCount,
		campaign.RepliedCount,
		campaign.MessagesPerSecond,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// Update persists all mutable campaign fields
func (r *CampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		UPDATE campaigns SET
			name = $2, status = $3, scheduled_at = $4, started_at = $5,
			completed_at = $6, total_contacts = $7, sent_count = $8,
			delivered_count = $9, read_count = $10, failed_count = $11,
			replied_count = $12, messages_per_second = $13, updated_at = $14
		WHERE id = $1
	`
	result, err := r.exec.ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Status,
		campaign.ScheduledAt,
		campaign.StartedAt,
		campaign.CompletedAt,
		campaign.TotalContacts,
		campaign.SentCount,
		campaign.DeliveredCount,
		campaign.ReadCount,
		campaign.FailedCount,
		campaign.RepliedCount,
		campaign.MessagesPerSecond,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "campaign", ID: campaign.ID.String()}
	}
	return nil
}

// ListByStatus returns all campaigns in one of the given statuses
func (r *CampaignRepository) ListByStatus(ctx context.Context, statuses ...domain.CampaignStatus) ([]*domain.Campaign, error) {
	query, args, err := psql.
		Select(campaignSelectFields()).
		From("campaigns").
		Where(sq.Eq{"status": statuses}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		campaign := &domain.Campaign{}
		if err := scanCampaign(rows, campaign); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

// GetScheduled returns scheduled campaigns due at now
func (r *CampaignRepository) GetScheduled(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
	`, campaignSelectFields())

	rows, err := r.exec.QueryContext(ctx, query, domain.CampaignStatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		campaign := &domain.Campaign{}
		if err := scanCampaign(rows, campaign); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
