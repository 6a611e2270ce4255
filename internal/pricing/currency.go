package pricing

import (
	"fmt"
	"maps"

	"github.com/shopspring/decimal"

	"auto-ria-clone/internal/domain"
)

// Normalizer converts listing prices into every supported currency using a
// fixed rate table. It is safe for concurrent use.
type Normalizer struct {
	rates domain.Rates
}

// NewNormalizer validates the rate table. The base currency rate is always 1.
func NewNormalizer(rates domain.Rates) (*Normalizer, error) {
	table := domain.Rates{domain.BaseCurrency: 1}
	for _, c := range domain.Currencies {
		if c == domain.BaseCurrency {
			continue
		}
		r, ok := rates[c]
		if !ok || r <= 0 {
			return nil, fmt.Errorf("pricing: missing or non-positive rate for %s", c)
		}
		table[c] = r
	}
	return &Normalizer{rates: table}, nil
}

// Rates returns a copy of the rate table.
func (n *Normalizer) Rates() domain.Rates { return maps.Clone(n.rates) }

// Convert expresses price in every supported currency. Each entry is rounded
// on its own from the base amount, so conversions are not chained.
func (n *Normalizer) Convert(price float64, cur domain.Currency) (domain.Prices, domain.Rates, error) {
	rate, ok := n.rates[cur]
	if !ok {
		return nil, nil, domain.BadRequest("unsupported currency %q", cur)
	}
	base := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(rate))

	out := make(domain.Prices, len(domain.Currencies))
	for _, c := range domain.Currencies {
		out[c] = base.Div(decimal.NewFromFloat(n.rates[c])).Round(0).IntPart()
	}
	return out, n.Rates(), nil
}

// FromBase converts a base-currency amount into cur using a stored rate
// snapshot, rounded to whole units. Unknown currencies are treated as base.
func FromBase(amount float64, cur domain.Currency, snapshot domain.Rates) int64 {
	rate := snapshot[cur]
	if rate <= 0 {
		rate = 1
	}
	return decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(rate)).Round(0).IntPart()
}
