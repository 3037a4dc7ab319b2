package calc

import (
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/shopspring/decimal"
)

// LineTotal is quantity times the listing's current price. Totals are
// computed at read time, never frozen into the line.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

func OrderTotal(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line.Listing.Price, line.Quantity))
	}
	return total
}
