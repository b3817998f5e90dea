package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", EUR)
		require.NoError(t, err)
		assert.Equal(t, "123.45 EUR", m.String())
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("XXZ")
	assert.Error(t, err)
}

func TestCurrencyScale(t *testing.T) {
	assert.Equal(t, int32(2), USD.Scale())
	assert.Equal(t, int32(0), JPY.Scale())
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney(decimal.RequireFromString("10.10"), USD)
	b := MustMoney(decimal.RequireFromString("0.20"), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.30 USD", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "9.90 USD", diff.String())

	assert.Equal(t, "30.30 USD", a.Multiply(decimal.NewFromInt(3)).String())

	_, err = a.Add(MustMoney(decimal.NewFromInt(1), EUR))
	assert.Error(t, err)
	_, err = a.Subtract(MustMoney(decimal.NewFromInt(1), EUR))
	assert.Error(t, err)
}

func TestMoney_Round(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("2.405"), USD).Round()
	assert.True(t, m.Amount().Equal(decimal.RequireFromString("2.41")))

	yen := MustMoney(decimal.RequireFromString("199.6"), JPY).Round()
	assert.True(t, yen.Amount().Equal(decimal.NewFromInt(200)))
}

func TestMoney_Format(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("1234.5"), USD)
	s := m.Format(language.AmericanEnglish)
	assert.Contains(t, s, "$")
	assert.Contains(t, s, "1,234.50")
}

func TestMoney_JSON(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("38.39"), USD)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"38.39","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"5.99"}`), &decoded))
	assert.Equal(t, DefaultCurrency, decoded.Currency())
	assert.True(t, decoded.Equals(MustMoney(decimal.RequireFromString("5.99"), USD)))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan([]byte("12.34")))
	assert.Equal(t, "12.34 USD", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(struct{}{}))
}
