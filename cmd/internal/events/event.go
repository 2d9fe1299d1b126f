// Package events carries auction activity to live subscribers: a websocket
// hub per process and an optional Redis pub/sub bus that fans events out to
// every process.
package events

import (
	"context"
	"encoding/json"
)

type Type string

const (
	BidPlaced        Type = "bid_placed"
	AuctionEnded     Type = "auction_ended"
	AuctionCancelled Type = "auction_cancelled"
	AuctionExtended  Type = "auction_extended"
)

type Event struct {
	Type         Type   `json:"type"`
	AuctionID    int    `json:"auction_id"`
	CurrentPrice string `json:"current_price,omitempty"`
	Bidder       string `json:"bidder,omitempty"`
	EndsAt       string `json:"ends_at,omitempty"`
	PurchaseID   *int   `json:"purchase_id,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

func Decode(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
