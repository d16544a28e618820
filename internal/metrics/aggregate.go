package metrics

import (
	"github.com/shopspring/decimal"

	"ad-report-bot/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// ProductAggregate is one product's summed performance over a period.
type ProductAggregate struct {
	ProductName string
	Cost        decimal.Decimal
	Revenue     decimal.Decimal
	Conversions decimal.Decimal
	ROAS        decimal.Decimal
}

// ROAS computes return on ad spend as a percentage. A zero cost yields zero
// rather than a division fault.
func ROAS(revenue, cost decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	return revenue.Div(cost).Mul(hundred)
}

// AggregateByProduct reduces records to one aggregate per product name,
// summing cost, revenue, and conversions and deriving ROAS. Output order
// follows first appearance of each product in the input.
func AggregateByProduct(records []ledger.Record) []ProductAggregate {
	byProduct := make(map[string]int, len(records))
	aggregates := make([]ProductAggregate, 0)

	for _, r := range records {
		idx, ok := byProduct[r.ProductName]
		if !ok {
			idx = len(aggregates)
			byProduct[r.ProductName] = idx
			aggregates = append(aggregates, ProductAggregate{ProductName: r.ProductName})
		}
		agg := &aggregates[idx]
		agg.Cost = agg.Cost.Add(r.Cost)
		agg.Revenue = agg.Revenue.Add(r.Revenue)
		agg.Conversions = agg.Conversions.Add(r.Conversions)
	}

	for i := range aggregates {
		aggregates[i].ROAS = ROAS(aggregates[i].Revenue, aggregates[i].Cost)
	}
	return aggregates
}
