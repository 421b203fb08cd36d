package enums

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateBooking            OutboxAggregateType = "booking"
	AggregatePaymentTransaction OutboxAggregateType = "payment_transaction"
	AggregateVideoPurchase      OutboxAggregateType = "video_purchase"
	AggregateVendor             OutboxAggregateType = "vendor"
	AggregateVendorWithdrawal   OutboxAggregateType = "vendor_withdrawal"
	AggregateTicket             OutboxAggregateType = "e_ticket"
)

var validAggregateTypes = set[OutboxAggregateType]{
	AggregateBooking,
	AggregatePaymentTransaction,
	AggregateVideoPurchase,
	AggregateVendor,
	AggregateVendorWithdrawal,
	AggregateTicket,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return validAggregateTypes.has(a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return validAggregateTypes.parse("aggregate type", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventBookingCreated         OutboxEventType = "booking_created"
	EventBookingCancelled       OutboxEventType = "booking_cancelled"
	EventBookingExpired         OutboxEventType = "booking_expired"
	EventTicketIssued           OutboxEventType = "ticket_issued"
	EventPaymentCompleted       OutboxEventType = "payment_completed"
	EventPaymentFailed          OutboxEventType = "payment_failed"
	EventPaymentRefunded        OutboxEventType = "payment_refunded"
	EventPaymentNeedsReview     OutboxEventType = "payment_needs_review"
	EventVideoPurchaseCompleted OutboxEventType = "video_purchase_completed"
	EventVendorRegistered       OutboxEventType = "vendor_registered"
	EventWithdrawalRequested    OutboxEventType = "withdrawal_requested"
	EventWithdrawalCompleted    OutboxEventType = "withdrawal_completed"
	EventWithdrawalFailed       OutboxEventType = "withdrawal_failed"
)

var validOutboxEventTypes = set[OutboxEventType]{
	EventBookingCreated,
	EventBookingCancelled,
	EventBookingExpired,
	EventTicketIssued,
	EventPaymentCompleted,
	EventPaymentFailed,
	EventPaymentRefunded,
	EventPaymentNeedsReview,
	EventVideoPurchaseCompleted,
	EventVendorRegistered,
	EventWithdrawalRequested,
	EventWithdrawalCompleted,
	EventWithdrawalFailed,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return validOutboxEventTypes.has(e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return validOutboxEventTypes.parse("event type", value)
}
