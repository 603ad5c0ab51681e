// backend/src/processors/position_processor.go
package processors

import (
	"math"
	"sort"

	"github.com/username/cartera/backend/src/models"
)

// closedEpsilon guards against floating-point residue: a reconstructed
// quantity at or below this is treated as a fully closed position.
const closedEpsilon = 1e-4

// PositionProcessor replays a transaction stream into holdings using a
// moving weighted-average cost basis. A sell proportionally shrinks the cost
// pool rather than consuming specific lots; this is deliberately not
// FIFO/LIFO.
type PositionProcessor struct{}

func NewPositionProcessor() *PositionProcessor { return &PositionProcessor{} }

type holding struct {
	symbol   string
	isin     string
	name     string
	currency string
	quantity float64
	cost     float64
	order    int // first-seen order, for stable output
}

// Process replays transactions (sorted chronologically, stable on ties) and
// returns one position per instrument still held. Dividends, fees, splits
// and unclassified rows do not move quantity or cost.
func (p *PositionProcessor) Process(txs []models.ParsedTransaction) []models.ParsedPosition {
	sorted := make([]models.ParsedTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	holdings := make(map[string]*holding)
	seen := 0
	for _, tx := range sorted {
		key := tx.ISIN
		if key == "" {
			key = tx.Symbol
		}
		if key == "" {
			continue
		}

		switch tx.Type {
		case models.TypeBuy:
			h, ok := holdings[key]
			if !ok {
				h = &holding{symbol: tx.Symbol, isin: tx.ISIN, name: tx.Name, currency: tx.Currency, order: seen}
				seen++
				holdings[key] = h
			}
			h.quantity += tx.Quantity
			h.cost += math.Abs(tx.Amount) + tx.Fees
			if h.name == "" {
				h.name = tx.Name
			}

		case models.TypeSell:
			h, ok := holdings[key]
			if !ok {
				continue // sell with no known holding: nothing to shrink
			}
			if h.quantity > 0 {
				ratio := tx.Quantity / h.quantity
				h.cost *= 1 - ratio
			}
			h.quantity -= tx.Quantity
			if h.quantity <= closedEpsilon {
				delete(holdings, key)
			}
		}
	}

	out := make([]*holding, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })

	positions := make([]models.ParsedPosition, 0, len(out))
	for _, h := range out {
		positions = append(positions, models.ParsedPosition{
			Symbol:    h.symbol,
			ISIN:      h.isin,
			Name:      h.name,
			Quantity:  h.quantity,
			AvgCost:   h.cost / h.quantity,
			TotalCost: h.cost,
			Currency:  h.currency,
		})
	}
	return positions
}
