package port

import "context"

// Settlement is the full fund movement of one purchase. SellerAmount + Fee +
// Refund always equals Payment.
type Settlement struct {
	Payer        string
	Payment      int64
	Seller       string
	SellerAmount int64
	Platform     string
	Fee          int64
	Refund       int64
}

type PaymentRail interface {
	// Settle applies the whole settlement or none of it; a failed split must
	// leave no partial payment
	Settle(ctx context.Context, s Settlement) error
}
