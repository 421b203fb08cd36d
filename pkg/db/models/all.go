package models

// All lists every persisted model, in dependency order, for dev
// auto-migration and storage tests.
func All() []any {
	return []any{
		&Movie{},
		&Review{},
		&Showtime{},
		&ShowtimeSeat{},
		&Booking{},
		&ETicket{},
		&Video{},
		&VideoPurchase{},
		&Vendor{},
		&PaymentTransaction{},
		&VendorEarning{},
		&VendorWithdrawal{},
		&VendorPayee{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
