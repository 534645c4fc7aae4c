package campaign

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
)

// fakeStore is an in-memory domain.Store. Reads hand out copies so a
// mutation only takes effect through Update, mirroring the real store.
type fakeStore struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*domain.Campaign
	links     map[uuid.UUID]*domain.CampaignContact
	contacts  map[uuid.UUID]*domain.Contact
	messages  map[uuid.UUID]*domain.Message
	phones    []*domain.WabaPhone
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: make(map[uuid.UUID]*domain.Campaign),
		links:     make(map[uuid.UUID]*domain.CampaignContact),
		contacts:  make(map[uuid.UUID]*domain.Contact),
		messages:  make(map[uuid.UUID]*domain.Message),
	}
}

func (s *fakeStore) Campaigns() domain.CampaignRepository               { return &fakeCampaignRepo{s} }
func (s *fakeStore) CampaignContacts() domain.CampaignContactRepository { return &fakeLinkRepo{s} }
func (s *fakeStore) Contacts() domain.ContactRepository                 { return &fakeContactRepo{s} }
func (s *fakeStore) Messages() domain.MessageRepository                 { return &fakeMessageRepo{s} }
func (s *fakeStore) WabaPhones() domain.WabaPhoneRepository             { return &fakeWabaPhoneRepo{s} }

func (s *fakeStore) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	return fn(s)
}

func (s *fakeStore) addCampaign(c *domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
}

func (s *fakeStore) addLink(l *domain.CampaignContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.links[l.ID] = &cp
}

func (s *fakeStore) addContact(c *domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contacts[c.ID] = &cp
}

func (s *fakeStore) addPhone(p *domain.WabaPhone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.phones = append(s.phones, &cp)
}

func (s *fakeStore) campaign(id uuid.UUID) *domain.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.campaigns[id]
	return &cp
}

func (s *fakeStore) link(id uuid.UUID) *domain.CampaignContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.links[id]
	return &cp
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fakeCampaignRepo struct{ s *fakeStore }

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "campaign", ID: id.String()}
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) Create(ctx context.Context, campaign *domain.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *campaign
	r.s.campaigns[campaign.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, campaign *domain.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campaigns[campaign.ID]; !ok {
		return &domain.ErrNotFound{Entity: "campaign", ID: campaign.ID.String()}
	}
	cp := *campaign
	r.s.campaigns[campaign.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) ListByStatus(ctx context.Context, statuses ...domain.CampaignStatus) ([]*domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range r.s.campaigns {
		for _, status := range statuses {
			if c.Status == status {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) GetScheduled(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range r.s.campaigns {
		if c.Status == domain.CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeLinkRepo struct{ s *fakeStore }

func (r *fakeLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignContact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.links[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: id.String()}
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLinkRepo) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*domain.CampaignContact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.MessageID != nil && *l.MessageID == messageID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: messageID.String()}
}

func (r *fakeLinkRepo) CreateBatch(ctx context.Context, links []*domain.CampaignContact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range links {
		cp := *l
		r.s.links[l.ID] = &cp
	}
	return nil
}

func (r *fakeLinkRepo) Update(ctx context.Context, link *domain.CampaignContact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.links[link.ID]; !ok {
		return &domain.ErrNotFound{Entity: "campaign contact", ID: link.ID.String()}
	}
	cp := *link
	r.s.links[link.ID] = &cp
	return nil
}

func sendable(l *domain.CampaignContact, now time.Time) bool {
	switch l.Status {
	case domain.DeliveryStatusQueued:
		return true
	case domain.DeliveryStatusFailed:
		return l.RetryCount == 0
	case domain.DeliveryStatusScheduled:
		return l.CanSendAfter != nil && !l.CanSendAfter.After(now)
	}
	return false
}

func (r *fakeLinkRepo) GetSendable(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*domain.CampaignContact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	var all []*domain.CampaignContact
	for _, l := range r.s.links {
		if l.CampaignID == campaignID && sendable(l, now) {
			cp := *l
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeLinkRepo) CountRemaining(ctx context.Context, campaignID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, l := range r.s.links {
		if l.CampaignID != campaignID {
			continue
		}
		switch l.Status {
		case domain.DeliveryStatusQueued, domain.DeliveryStatusScheduled:
			count++
		case domain.DeliveryStatusFailed:
			if l.RetryCount == 0 {
				count++
			}
		}
	}
	return count, nil
}

func (r *fakeLinkRepo) GetLatestSentForContact(ctx context.Context, contactID uuid.UUID) (*domain.CampaignContact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var latest *domain.CampaignContact
	for _, l := range r.s.links {
		if l.ContactID != contactID || l.MessageID == nil {
			continue
		}
		if latest == nil || l.UpdatedAt.After(latest.UpdatedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, &domain.ErrNotFound{Entity: "campaign contact", ID: contactID.String()}
	}
	cp := *latest
	return &cp, nil
}

type fakeContactRepo struct{ s *fakeStore }

func (r *fakeContactRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "contact", ID: id.String()}
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contacts {
		if c.PhoneNumber == phoneNumber {
			cp := *c
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Entity: "contact", ID: phoneNumber}
}

func (r *fakeContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *contact
	r.s.contacts[contact.ID] = &cp
	return nil
}

func (r *fakeContactRepo) Update(ctx context.Context, contact *domain.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contacts[contact.ID]; !ok {
		return &domain.ErrNotFound{Entity: "contact", ID: contact.ID.String()}
	}
	cp := *contact
	r.s.contacts[contact.ID] = &cp
	return nil
}

type fakeMessageRepo struct{ s *fakeStore }

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "message", ID: id.String()}
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) GetByWamid(ctx context.Context, wamid string) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.Wamid == wamid {
			cp := *m
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Entity: "message", ID: wamid}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *message
	r.s.messages[message.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[message.ID]; !ok {
		return &domain.ErrNotFound{Entity: "message", ID: message.ID.String()}
	}
	cp := *message
	r.s.messages[message.ID] = &cp
	return nil
}

type fakeWabaPhoneRepo struct{ s *fakeStore }

func (r *fakeWabaPhoneRepo) GetDefault(ctx context.Context) (*domain.WabaPhone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.phones {
		if p.IsDefault {
			cp := *p
			return &cp, nil
		}
	}
	if len(r.s.phones) > 0 {
		cp := *r.s.phones[0]
		return &cp, nil
	}
	return nil, &domain.ErrNotFound{Entity: "waba phone", ID: "default"}
}

func (r *fakeWabaPhoneRepo) List(ctx context.Context) ([]*domain.WabaPhone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.WabaPhone, 0, len(r.s.phones))
	for _, p := range r.s.phones {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// fakeProvider records sends and can be scripted to fail
type fakeProvider struct {
	mu       sync.Mutex
	sends    []domain.SendPayload
	failWith error
	seq      int
}

func (p *fakeProvider) SendMessage(ctx context.Context, phoneNumberID string, payload domain.SendPayload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return "", p.failWith
	}
	p.sends = append(p.sends, payload)
	p.seq++
	return fmt.Sprintf("wamid.test.%s.%d", payload.To, p.seq), nil
}

func (p *fakeProvider) FetchPhoneNumbers(ctx context.Context) ([]domain.ProviderPhone, error) {
	return nil, nil
}

func (p *fakeProvider) FetchTemplates(ctx context.Context) ([]domain.ProviderTemplate, error) {
	return nil, nil
}

func (p *fakeProvider) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

// fakeNotifier records emitted events
type fakeNotifier struct {
	mu     sync.Mutex
	events []fakeEvent
}

type fakeEvent struct {
	name string
	data map[string]interface{}
}

func (n *fakeNotifier) Notify(ctx context.Context, event string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fakeEvent{name: event, data: data})
}

func (n *fakeNotifier) byName(name string) []fakeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []fakeEvent
	for _, e := range n.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeQueue is an in-memory domain.Queue
type fakeQueue struct {
	mu        sync.Mutex
	items     map[string][]domain.Delivery
	acked     map[string]int
	publishes map[string]int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		items:     make(map[string][]domain.Delivery),
		acked:     make(map[string]int),
		publishes: make(map[string]int),
	}
}

func (q *fakeQueue) Publish(ctx context.Context, subject string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.publishes[subject]++
	q.items[subject] = append(q.items[subject], domain.Delivery{
		ID:      uuid.New().String(),
		Payload: payload,
	})
	return nil
}

func (q *fakeQueue) Fetch(ctx context.Context, subject string, batch int, timeout time.Duration) ([]domain.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.items[subject]
	if len(pending) == 0 {
		return nil, nil
	}
	if len(pending) > batch {
		q.items[subject] = pending[batch:]
		return pending[:batch], nil
	}
	q.items[subject] = nil
	return pending, nil
}

func (q *fakeQueue) Ack(ctx context.Context, subject string, delivery domain.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked[subject]++
	return nil
}

func (q *fakeQueue) published(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.publishes[subject]
}
