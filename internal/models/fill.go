package models

// FillResult is the outcome of one fill attempt. Side effects of a fill
// are visible only here and in the single account mutation.
type FillResult struct {
	Order           *Order
	Filled          bool
	FillPrice       float64
	Commission      float64
	SlippageApplied float64
	RejectionReason string
	Position        *Position
}

// Rejection builds a rejected FillResult and stamps the order.
func Rejection(o *Order, reason string) *FillResult {
	o.Status = OrderRejected
	o.RejectionReason = reason
	return &FillResult{Order: o, Filled: false, RejectionReason: reason}
}
