package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-ria-clone/internal/domain"
)

var fixtureRates = domain.Rates{domain.CurrencyUSD: 41.1, domain.CurrencyEUR: 51.1}

func TestNewNormalizer_RejectsIncompleteTable(t *testing.T) {
	_, err := NewNormalizer(domain.Rates{domain.CurrencyUSD: 41.1})
	assert.Error(t, err)

	_, err = NewNormalizer(domain.Rates{domain.CurrencyUSD: 41.1, domain.CurrencyEUR: 0})
	assert.Error(t, err)
}

func TestNewNormalizer_ForcesBaseRate(t *testing.T) {
	n, err := NewNormalizer(domain.Rates{domain.CurrencyUSD: 40, domain.CurrencyEUR: 50, domain.CurrencyUAH: 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, n.Rates()[domain.CurrencyUAH])
}

func TestConvert_FromUAH(t *testing.T) {
	n, err := NewNormalizer(fixtureRates)
	require.NoError(t, err)

	prices, rates, err := n.Convert(100000, domain.CurrencyUAH)
	require.NoError(t, err)
	assert.Equal(t, domain.Prices{
		domain.CurrencyUAH: 100000,
		domain.CurrencyUSD: 2433,
		domain.CurrencyEUR: 1957,
	}, prices)
	assert.Equal(t, 41.1, rates[domain.CurrencyUSD])
}

func TestConvert_FromUSD(t *testing.T) {
	n, _ := NewNormalizer(fixtureRates)
	prices, _, err := n.Convert(10000, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, int64(411000), prices[domain.CurrencyUAH])
	assert.Equal(t, int64(10000), prices[domain.CurrencyUSD])
	assert.Equal(t, int64(8043), prices[domain.CurrencyEUR])
}

func TestConvert_UnknownCurrency(t *testing.T) {
	n, _ := NewNormalizer(fixtureRates)
	_, _, err := n.Convert(1, "GBP")
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestConvert_RoundTripWithinOneUnit(t *testing.T) {
	n, _ := NewNormalizer(fixtureRates)
	for _, c := range domain.Currencies {
		for _, p := range []float64{1, 7.5, 99.99, 1234.56, 100000, 987654.321} {
			prices, _, err := n.Convert(p, c)
			require.NoError(t, err)
			assert.LessOrEqual(t, math.Abs(float64(prices[c])-p), 1.0, "%v %s", p, c)
			assert.Len(t, prices, len(domain.Currencies))
		}
	}
}

func TestFromBase(t *testing.T) {
	assert.Equal(t, int64(2433), FromBase(100000, domain.CurrencyUSD, fixtureRates))
	assert.Equal(t, int64(100000), FromBase(100000, domain.CurrencyUAH, fixtureRates))
	assert.Equal(t, int64(0), FromBase(0, domain.CurrencyEUR, fixtureRates))
}
