// Package entity holds the gorm models persisted by the marketplace.
package entity

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Property{},
		&PaymentInstrument{},
		&AgentAvailability{},
		&Appointment{},
		&Auction{},
		&Bid{},
		&AuctionParticipant{},
		&Purchase{},
		&Message{},
	}
}
