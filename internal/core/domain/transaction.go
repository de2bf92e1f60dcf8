package domain

import "time"

type TransactionKind string

const (
	KindRegistration TransactionKind = "registration"
	KindSale         TransactionKind = "sale"
	KindTransfer     TransactionKind = "transfer"
)

// Transaction is one immutable ownership-change record. The first entry for
// any item is always a registration with From empty and Price 0.
type Transaction struct {
	From  string // empty for the first record
	To    string
	At    time.Time
	Kind  TransactionKind
	Price int64 // zero for registration and transfer
}

// Record is one unit of durable mirroring: the item snapshot after a
// mutation, plus the ledger entry the mutation appended, if any.
// Certification and listing update the snapshot without writing history.
type Record struct {
	Item  Item
	Entry *Transaction
}
