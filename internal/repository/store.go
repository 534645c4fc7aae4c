package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/waplane/waplane/internal/domain"
)

// executor abstracts *sql.DB and *sql.Tx so repositories can run either
// standalone or inside a unit-of-work transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements domain.Store over Postgres
type Store struct {
	db   *sql.DB
	exec executor
}

// NewStore creates a store bound to the given database
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:   db,
		exec: db,
	}
}

// Campaigns returns the campaign repository
func (s *Store) Campaigns() domain.CampaignRepository {
	return &CampaignRepository{exec: s.exec}
}

// CampaignContacts returns the campaign contact repository
func (s *Store) CampaignContacts() domain.CampaignContactRepository {
	return &CampaignContactRepository{exec: s.exec}
}

// Contacts returns the contact repository
func (s *Store) Contacts() domain.ContactRepository {
	return &ContactRepository{exec: s.exec}
}

// Messages returns the message repository
func (s *Store) Messages() domain.MessageRepository {
	return &MessageRepository{exec: s.exec}
}

// WabaPhones returns the WABA phone repository
func (s *Store) WabaPhones() domain.WabaPhoneRepository {
	return &WabaPhoneRepository{exec: s.exec}
}

// WithTx executes fn within a transaction. The store passed to fn shares
// one transaction across all its repositories; it commits when fn returns
// nil and rolls back otherwise. Calls nested inside an existing
// transaction reuse it.
func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, ok := s.exec.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, exec: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
