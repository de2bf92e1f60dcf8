package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/provly/provenance/internal/core/domain"
	"github.com/provly/provenance/internal/core/ledger"
	"github.com/provly/provenance/internal/metrics"
	"github.com/provly/provenance/internal/port"
)

var ErrDuplicateRequest = fmt.Errorf("duplicate request: %w", domain.ErrConflict)

// Policy selects between the two contract variants: participant-gated with a
// platform fee, or open and fee-less. Both knobs are fixed after construction.
type Policy struct {
	FeeBps              int64
	RequireRegistration bool
}

// Marketplace orchestrates the ledger. Every mutating entry point runs under
// a single mutex to completion, so no operation ever observes another's
// intermediate state; queries take the read lock and see a snapshot no older
// than the last committed mutation.
type Marketplace struct {
	mu        sync.RWMutex
	ledger    *ledger.Ledger
	cache     port.CacheRepository
	rail      port.PaymentRail
	publisher port.EventPublisher
	metrics   *metrics.Metrics
	policy    Policy
	records   chan domain.Record
}

func NewMarketplace(l *ledger.Ledger, cache port.CacheRepository, rail port.PaymentRail, publisher port.EventPublisher, m *metrics.Metrics, policy Policy, queueSize int) *Marketplace {
	return &Marketplace{
		ledger:    l,
		cache:     cache,
		rail:      rail,
		publisher: publisher,
		metrics:   m,
		policy:    policy,
		records:   make(chan domain.Record, queueSize),
	}
}

// Records exposes the durable-mirror queue drained by archive workers.
// Records are enqueued inside the critical section, so queue order matches
// commit order.
func (m *Marketplace) Records() <-chan domain.Record {
	return m.records
}

func (m *Marketplace) Close() {
	close(m.records)
}

func (m *Marketplace) RegisterParticipant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ledger.RegisterParticipant(id); err != nil {
		return err
	}
	m.publish(ctx, domain.Event{Type: domain.EventParticipantRegistered, Actor: id})
	return nil
}

func (m *Marketplace) AddCertifier(ctx context.Context, caller, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller != m.ledger.Admin() {
		return fmt.Errorf("only the administrator may add certifiers: %w", domain.ErrUnauthorized)
	}
	m.ledger.AddCertifier(id)
	m.publish(ctx, domain.Event{Type: domain.EventCertifierAdded, Actor: caller, Counterparty: id})
	return nil
}

type RegisterItemInput struct {
	Name           string
	Description    string
	EstimatedValue int64
	Serial         string
	ImageRef       string
}

func (m *Marketplace) RegisterItem(ctx context.Context, caller string, in RegisterItemInput) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireParticipant(caller); err != nil {
		return 0, err
	}
	id, err := m.ledger.RegisterItem(in.Name, in.Description, in.Serial, in.ImageRef, in.EstimatedValue, caller)
	if err != nil {
		return 0, err
	}
	m.ledger.AddOwned(caller, id)
	entry := m.ledger.Append(id, "", caller, domain.KindRegistration, 0, time.Now())

	m.enqueue(id, &entry)
	m.publish(ctx, domain.Event{Type: domain.EventItemRegistered, ItemID: id, Serial: in.Serial, Actor: caller})
	if m.metrics != nil {
		m.metrics.ItemsRegistered.Inc()
	}
	return id, nil
}

// CertifyItem marks the item certified by the caller. Re-certification
// overwrites the certifying party; certification never writes history.
func (m *Marketplace) CertifyItem(ctx context.Context, caller string, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ledger.IsCertifier(caller) {
		return fmt.Errorf("%q is not an authorized certifier: %w", caller, domain.ErrUnauthorized)
	}
	if err := m.ledger.Certify(id, caller); err != nil {
		return err
	}

	m.enqueue(id, nil)
	m.publish(ctx, domain.Event{Type: domain.EventItemCertified, ItemID: id, Actor: caller})
	if m.metrics != nil {
		m.metrics.Certifications.Inc()
	}
	return nil
}

func (m *Marketplace) ListItemForSale(ctx context.Context, caller string, id uint64, price int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ledger.SetForSale(id, price, caller); err != nil {
		return err
	}

	m.enqueue(id, nil)
	m.publish(ctx, domain.Event{Type: domain.EventItemListedForSale, ItemID: id, Actor: caller, Price: price})
	if m.metrics != nil {
		m.metrics.ItemsForSale.Inc()
	}
	return nil
}

// Receipt is the fund split of one completed purchase.
type Receipt struct {
	Fee          int64
	SellerAmount int64
	Refund       int64
}

// PurchaseItem buys a listed item. State mutates before any value moves:
// once funds are in flight the item is already reassigned and delisted, so a
// reentrant attempt on the same item fails the for-sale precondition. A
// settlement failure unwinds every in-memory mutation.
func (m *Marketplace) PurchaseItem(ctx context.Context, requestID, caller string, id uint64, payment int64) (Receipt, error) {
	ok, err := m.cache.SetIdempotency(ctx, "purchase:"+requestID)
	if err != nil {
		return Receipt{}, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return Receipt{}, ErrDuplicateRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	receipt, err := m.purchaseLocked(ctx, caller, id, payment)
	if err != nil {
		// A rejected command consumed no state; let the caller retry under
		// the same request id.
		if relErr := m.cache.ReleaseIdempotency(ctx, "purchase:"+requestID); relErr != nil {
			log.Printf("release idempotency key for request %s: %v", requestID, relErr)
		}
		return Receipt{}, err
	}
	return receipt, nil
}

func (m *Marketplace) purchaseLocked(ctx context.Context, caller string, id uint64, payment int64) (Receipt, error) {
	item, err := m.ledger.Item(id)
	if err != nil {
		return Receipt{}, err
	}
	if !item.ForSale {
		return Receipt{}, fmt.Errorf("item %d is not for sale: %w", id, domain.ErrInvalidState)
	}
	if payment < item.SalePrice {
		return Receipt{}, fmt.Errorf("payment %d below sale price %d: %w", payment, item.SalePrice, domain.ErrInvalidState)
	}
	if caller == item.Owner {
		return Receipt{}, fmt.Errorf("item %d already owned by %q: %w", id, caller, domain.ErrInvalidState)
	}
	if err := m.requireParticipant(caller); err != nil {
		return Receipt{}, err
	}

	seller := item.Owner
	price := item.SalePrice
	fee := price * m.policy.FeeBps / 10000
	sellerAmount := price - fee
	refund := payment - price

	m.ledger.ReassignOwner(id, caller)
	m.ledger.MoveOwned(seller, caller, id)
	entry := m.ledger.Append(id, seller, caller, domain.KindSale, price, time.Now())

	err = m.rail.Settle(ctx, port.Settlement{
		Payer:        caller,
		Payment:      payment,
		Seller:       seller,
		SellerAmount: sellerAmount,
		Platform:     m.ledger.Platform(),
		Fee:          fee,
		Refund:       refund,
	})
	if err != nil {
		m.ledger.RestoreItem(item)
		m.ledger.MoveOwned(caller, seller, id)
		m.ledger.DropLast(id)
		return Receipt{}, fmt.Errorf("settlement failed: %w", err)
	}

	m.enqueue(id, &entry)
	m.publish(ctx, domain.Event{Type: domain.EventItemSold, ItemID: id, Actor: caller, Counterparty: seller, Price: price})
	if m.metrics != nil {
		m.metrics.ItemsSold.Inc()
		m.metrics.ItemsForSale.Dec()
	}
	return Receipt{Fee: fee, SellerAmount: sellerAmount, Refund: refund}, nil
}

// TransferItem gifts the item to the recipient. No value moves.
func (m *Marketplace) TransferItem(ctx context.Context, caller string, id uint64, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.ledger.Item(id)
	if err != nil {
		return err
	}
	if item.Owner != caller {
		return fmt.Errorf("%q is not the owner of item %d: %w", caller, id, domain.ErrUnauthorized)
	}
	if m.policy.RequireRegistration && !m.ledger.IsRegistered(recipient) {
		return fmt.Errorf("recipient %q is not eligible to receive: %w", recipient, domain.ErrInvalidState)
	}

	wasForSale := item.ForSale
	m.ledger.ReassignOwner(id, recipient)
	m.ledger.MoveOwned(caller, recipient, id)
	entry := m.ledger.Append(id, caller, recipient, domain.KindTransfer, 0, time.Now())

	m.enqueue(id, &entry)
	m.publish(ctx, domain.Event{Type: domain.EventItemTransferred, ItemID: id, Actor: caller, Counterparty: recipient})
	if m.metrics != nil {
		m.metrics.ItemsTransferred.Inc()
		if wasForSale {
			m.metrics.ItemsForSale.Dec()
		}
	}
	return nil
}

// Verification is the answer to a verify-by-serial query.
type Verification struct {
	Exists    bool
	ItemID    uint64
	Owner     string
	Certified bool
}

func (m *Marketplace) VerifyBySerial(serial string) Verification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.ledger.IDBySerial(serial)
	if !ok {
		return Verification{}
	}
	item, err := m.ledger.Item(id)
	if err != nil {
		return Verification{}
	}
	return Verification{Exists: true, ItemID: id, Owner: item.Owner, Certified: item.Certified}
}

func (m *Marketplace) GetItem(id uint64) (domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Item(id)
}

func (m *Marketplace) HistoryOf(id uint64) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.History(id)
}

func (m *Marketplace) ItemsOf(owner string) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Owned(owner)
}

// Counts is the platform-wide tally over the whole identifier space.
type Counts struct {
	Total     int
	Active    int
	ForSale   int
	Certified int
}

func (m *Marketplace) CountItems() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total, active, forSale, certified := m.ledger.Counts()
	return Counts{Total: total, Active: active, ForSale: forSale, Certified: certified}
}

func (m *Marketplace) requireParticipant(id string) error {
	if m.policy.RequireRegistration && !m.ledger.IsRegistered(id) {
		return fmt.Errorf("%q is not a registered participant: %w", id, domain.ErrUnauthorized)
	}
	return nil
}

func (m *Marketplace) enqueue(id uint64, entry *domain.Transaction) {
	item, err := m.ledger.Item(id)
	if err != nil {
		return
	}
	m.records <- domain.Record{Item: item, Entry: entry}
}

// publish fans the notification out after the mutation is committed. Failures
// are logged, never unwound: the ledger, not the event stream, is authoritative.
func (m *Marketplace) publish(ctx context.Context, event domain.Event) {
	event.ID = uuid.NewString()
	event.At = time.Now()
	if err := m.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s: %v", event.Type, err)
	}
}
