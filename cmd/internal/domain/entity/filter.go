package entity

import "github.com/shopspring/decimal"

type PropertyFilter struct {
	Status   PropertyStatus
	City     string
	AgentID  int
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}
