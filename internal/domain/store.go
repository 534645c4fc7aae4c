package domain

import "context"

//go:generate mockgen -destination mocks/mock_store.go -package mocks github.com/waplane/waplane/internal/domain Store

// Store is the transactional unit of work over the persistence layer.
// Repositories obtained from the Store passed to WithTx share one
// database transaction; the transaction commits when fn returns nil and
// rolls back otherwise. The database is the single source of truth and
// the sole arbiter of concurrent mutation: every counter change happens
// inside one short committed transaction, never under an in-memory lock.
type Store interface {
	Campaigns() CampaignRepository
	CampaignContacts() CampaignContactRepository
	Contacts() ContactRepository
	Messages() MessageRepository
	WabaPhones() WabaPhoneRepository

	WithTx(ctx context.Context, fn func(Store) error) error
}
