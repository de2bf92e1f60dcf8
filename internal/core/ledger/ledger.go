// Package ledger holds the authoritative in-memory state: the item registry
// with its unique serial index, the per-owner ownership index, the per-item
// transaction history, and the access registry. The Ledger does no locking of
// its own; the marketplace engine serializes every call.
package ledger

import (
	"fmt"

	"github.com/provly/provenance/internal/core/domain"
)

type Ledger struct {
	admin    string
	platform string

	certifiers   map[string]bool
	participants map[string]bool

	items   map[uint64]*domain.Item
	serials map[string]uint64
	lastID  uint64

	owned    map[string][]uint64
	position map[string]map[uint64]int

	history map[uint64][]domain.Transaction
}

// New creates an empty ledger. The administrator and the platform wallet are
// implicit certifiers and implicit participants; the admin identity is
// immutable after construction.
func New(admin, platform string) *Ledger {
	l := &Ledger{
		admin:        admin,
		platform:     platform,
		certifiers:   make(map[string]bool),
		participants: make(map[string]bool),
		items:        make(map[uint64]*domain.Item),
		serials:      make(map[string]uint64),
		owned:        make(map[string][]uint64),
		position:     make(map[string]map[uint64]int),
		history:      make(map[uint64][]domain.Transaction),
	}
	l.certifiers[admin] = true
	l.certifiers[platform] = true
	l.participants[admin] = true
	l.participants[platform] = true
	return l
}

func (l *Ledger) Admin() string    { return l.admin }
func (l *Ledger) Platform() string { return l.platform }

func (l *Ledger) RegisterParticipant(id string) error {
	if l.participants[id] {
		return fmt.Errorf("participant %q already registered: %w", id, domain.ErrConflict)
	}
	l.participants[id] = true
	return nil
}

// AddCertifier marks id as a certifier. Re-adding is a no-op, not an error.
// Authorization (admin-only) is enforced by the engine.
func (l *Ledger) AddCertifier(id string) {
	l.certifiers[id] = true
}

func (l *Ledger) IsCertifier(id string) bool  { return l.certifiers[id] }
func (l *Ledger) IsRegistered(id string) bool { return l.participants[id] }

// RegisterItem allocates the next identifier and creates the item record.
// A duplicate serial fails before any state is written, so a rejected
// registration leaves no partial record.
func (l *Ledger) RegisterItem(name, description, serial, imageRef string, value int64, owner string) (uint64, error) {
	if existing, ok := l.serials[serial]; ok {
		return 0, fmt.Errorf("serial %q already registered as item %d: %w", serial, existing, domain.ErrConflict)
	}
	l.lastID++
	id := l.lastID
	l.items[id] = &domain.Item{
		ID:             id,
		Name:           name,
		Description:    description,
		EstimatedValue: value,
		Serial:         serial,
		ImageRef:       imageRef,
		Owner:          owner,
	}
	l.serials[serial] = id
	return id, nil
}

// Item returns a copy of the record. Items without an owner are
// indistinguishable from nonexistent ones.
func (l *Ledger) Item(id uint64) (domain.Item, error) {
	it, ok := l.items[id]
	if !ok || it.Owner == "" {
		return domain.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return *it, nil
}

// Certify sets the certified flag and overwrites the certifying party. Only
// the latest certification is retained.
func (l *Ledger) Certify(id uint64, certifier string) error {
	it, ok := l.items[id]
	if !ok || it.Owner == "" {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	it.Certified = true
	it.Certifier = certifier
	return nil
}

// SetForSale lists the item at the given price. Price 0 is a valid listing.
func (l *Ledger) SetForSale(id uint64, price int64, owner string) error {
	it, ok := l.items[id]
	if !ok || it.Owner == "" {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	if it.Owner != owner {
		return fmt.Errorf("%q is not the owner of item %d: %w", owner, id, domain.ErrUnauthorized)
	}
	it.ForSale = true
	it.SalePrice = price
	return nil
}

// ReassignOwner is the engine-internal transfer primitive: it sets the owner
// and clears the listing. History and the ownership index are the caller's
// responsibility, written in the same atomic step.
func (l *Ledger) ReassignOwner(id uint64, newOwner string) {
	it := l.items[id]
	it.Owner = newOwner
	it.ForSale = false
	it.SalePrice = 0
}

// RestoreItem writes back a previously captured snapshot. Used only to
// unwind a mutation whose settlement failed before commit.
func (l *Ledger) RestoreItem(snapshot domain.Item) {
	it := l.items[snapshot.ID]
	it.Owner = snapshot.Owner
	it.ForSale = snapshot.ForSale
	it.SalePrice = snapshot.SalePrice
}

// IDBySerial resolves a serial number to its item, if any.
func (l *Ledger) IDBySerial(serial string) (uint64, bool) {
	id, ok := l.serials[serial]
	return id, ok
}

// Counts scans the identifier space 1..lastID and tallies current state.
func (l *Ledger) Counts() (total, active, forSale, certified int) {
	for id := uint64(1); id <= l.lastID; id++ {
		it, ok := l.items[id]
		if !ok {
			continue
		}
		total++
		if it.Owner != "" {
			active++
		}
		if it.ForSale {
			forSale++
		}
		if it.Certified {
			certified++
		}
	}
	return total, active, forSale, certified
}
