package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amishk599/gigfinder/internal/model"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "symbol range", input: "$60k-$100k", want: "$60k-$100k", wantOK: true},
		{name: "symbol range with spaces", input: "Salary: $60,000 - $80,000 per year", want: "$60,000 - $80,000", wantOK: true},
		{name: "range without second symbol", input: "€40k - 55k", want: "€40k - 55k", wantOK: true},
		{name: "code form", input: "50000 USD", want: "50000 USD", wantOK: true},
		{name: "code form shorthand lowercase", input: "paid 60k eur yearly", want: "60k eur", wantOK: true},
		{name: "pound with thousands", input: "£1,200", want: "£1,200", wantOK: true},
		{name: "yen", input: "¥500000 monthly", want: "¥500000", wantOK: true},
		{name: "symbol pattern beats short text", input: "$60k Global", want: "$60k", wantOK: true},
		{name: "short text fallback verbatim", input: "100 $/hr", want: "100 $/hr", wantOK: true},
		{name: "no match", input: "Remote, flexible hours", wantOK: false},
		{name: "long text with symbol but no pattern", input: "Payment in $ after every milestone 2", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "whitespace", input: "   ", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromText(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_TierOrder(t *testing.T) {
	t.Run("explicit field wins over tags", func(t *testing.T) {
		got, ok := Extract(Fields{Explicit: "$90k", Tags: []string{"$50k"}})
		assert.True(t, ok)
		assert.Equal(t, "$90k", got)
	})

	t.Run("first matching tag wins", func(t *testing.T) {
		got, ok := Extract(Fields{
			Explicit: "Worldwide",
			Tags:     []string{"golang", "70k USD", "$80k"},
		})
		assert.True(t, ok)
		assert.Equal(t, "70k USD", got)
	})

	t.Run("tag pattern beats short explicit fallback", func(t *testing.T) {
		got, ok := Extract(Fields{Explicit: "5 $ bonus", Tags: []string{"$80k"}})
		assert.True(t, ok)
		assert.Equal(t, "$80k", got)
	})

	t.Run("short fallback over explicit before tags", func(t *testing.T) {
		got, ok := Extract(Fields{Explicit: "5 $ bonus", Tags: []string{"9 € tip"}})
		assert.True(t, ok)
		assert.Equal(t, "5 $ bonus", got)
	})

	t.Run("short fallback reaches aux", func(t *testing.T) {
		got, ok := Extract(Fields{Aux: []string{"Fixed-price", "25 $ / hour"}})
		assert.True(t, ok)
		assert.Equal(t, "25 $ / hour", got)
	})

	t.Run("fallback needs a digit", func(t *testing.T) {
		_, ok := Extract(Fields{Aux: []string{"$ negotiable"}})
		assert.False(t, ok)
	})
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, model.BudgetNA, OrNA(Fields{Explicit: "Remote, flexible hours"}))
	assert.Equal(t, "$500", OrNA(Fields{Explicit: "Budget $500"}))
}
