// Package costbasis derives current positions from a buy/sell ledger using
// a running-average cost model: sells remove cost proportionally at the
// pre-sell average, not FIFO by lot.
package costbasis

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rumor-ml/finflow/internal/domain"
)

const (
	quantityScale = 8
	moneyScale    = 2
)

// Calculate aggregates the complete ledger of one source into current
// positions. For each symbol the transactions are processed in ascending
// date order; fully exited symbols (remaining quantity <= 0) produce no
// position. Missing prices coerce to 0 and over-selling clamps to the held
// quantity; the calculator never fails.
//
// Arithmetic runs on decimals and is rounded at the boundary: quantities to
// 8 decimals, monetary values to 2.
func Calculate(sourceID string, history []domain.InvestmentTransaction, prices map[string]float64, currency string) []domain.InvestmentPosition {
	bySymbol := make(map[string][]domain.InvestmentTransaction)
	for _, txn := range history {
		bySymbol[txn.Symbol] = append(bySymbol[txn.Symbol], txn)
	}

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	positions := make([]domain.InvestmentPosition, 0, len(symbols))
	for _, symbol := range symbols {
		txns := bySymbol[symbol]
		sort.SliceStable(txns, func(i, j int) bool {
			return txns[i].Date.Before(txns[j].Date)
		})

		totalQuantity := decimal.Zero
		totalSpent := decimal.Zero

		for _, txn := range txns {
			quantity := decimal.NewFromFloat(txn.Quantity)

			switch txn.Type {
			case domain.InvestmentBuy:
				totalQuantity = totalQuantity.Add(quantity)
				totalSpent = totalSpent.Add(decimal.NewFromFloat(txn.TotalAmount)).Add(decimal.NewFromFloat(txn.Fee))

			case domain.InvestmentSell:
				if totalQuantity.IsZero() {
					// Nothing held; a sell with no prior buys carries no
					// cost basis to remove.
					continue
				}
				avgCost := totalSpent.Div(totalQuantity)
				soldQuantity := quantity
				if soldQuantity.GreaterThan(totalQuantity) {
					soldQuantity = totalQuantity
				}
				totalQuantity = totalQuantity.Sub(soldQuantity)
				totalSpent = totalSpent.Sub(soldQuantity.Mul(avgCost))
			}
		}

		if totalQuantity.LessThanOrEqual(decimal.Zero) {
			continue
		}

		avgBuyPrice := totalSpent.Div(totalQuantity)
		currentPrice := decimal.NewFromFloat(prices[symbol])
		currentValue := totalQuantity.Mul(currentPrice)
		invested := totalQuantity.Mul(avgBuyPrice)
		gainLoss := currentValue.Sub(invested)

		position := domain.InvestmentPosition{
			ID:           uuid.NewString(),
			SourceID:     sourceID,
			Symbol:       symbol,
			Quantity:     roundFloat(totalQuantity, quantityScale),
			AvgBuyPrice:  roundFloat(avgBuyPrice, moneyScale),
			CurrentPrice: roundFloat(currentPrice, moneyScale),
			CurrentValue: roundFloat(currentValue, moneyScale),
			GainLoss:     roundFloat(gainLoss, moneyScale),
			Currency:     currency,
		}
		if !invested.IsZero() {
			percent := gainLoss.Div(invested).Mul(decimal.NewFromInt(100))
			position.GainLossPercent = roundFloat(percent, moneyScale)
		}

		positions = append(positions, position)
	}

	return positions
}

func roundFloat(d decimal.Decimal, scale int32) float64 {
	f, _ := d.Round(scale).Float64()
	return f
}
