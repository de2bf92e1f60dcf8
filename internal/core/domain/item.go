package domain

// Item is a tracked physical good. An item with an empty Owner has never been
// registered; identifiers are assigned sequentially starting at 1 and are
// never reused.
type Item struct {
	ID             uint64
	Name           string
	Description    string
	EstimatedValue int64
	Serial         string // globally unique, immutable once set
	ImageRef       string
	Owner          string
	Certified      bool
	Certifier      string // valid only while Certified is true
	ForSale        bool
	SalePrice      int64
}
