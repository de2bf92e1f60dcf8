package domain

import "time"

type EventType string

const (
	EventParticipantRegistered EventType = "ParticipantRegistered"
	EventCertifierAdded        EventType = "CertifierAdded"
	EventItemRegistered        EventType = "ItemRegistered"
	EventItemCertified         EventType = "ItemCertified"
	EventItemListedForSale     EventType = "ItemListedForSale"
	EventItemSold              EventType = "ItemSold"
	EventItemTransferred       EventType = "ItemTransferred"
)

// Event is the notification emitted once per successful mutating call,
// consumed by external indexers and front-ends.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	At           time.Time `json:"at"`
	ItemID       uint64    `json:"item_id,omitempty"`
	Serial       string    `json:"serial,omitempty"`
	Actor        string    `json:"actor"`
	Counterparty string    `json:"counterparty,omitempty"`
	Price        int64     `json:"price,omitempty"`
}
