package bulletin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestConvertNumbers(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []float64
	}{
		{"parenthesised thousands", []string{"(1,234.5)"}, []float64{-1234.5}},
		{"plain integer", []string{"89"}, []float64{89}},
		{"mixed order preserved", []string{"300", "(200)", "1,000,000"}, []float64{300, -200, 1000000}},
		{"anchors dropped", []string{"Profit", "12", "EPS", "Increase"}, []float64{12}},
		{"unbalanced paren is positive", []string{"(12"}, []float64{12}},
		{"decimal", []string{"0.0125"}, []float64{0.0125}},
		{"empty and blank", []string{"", "  "}, []float64{}},
		{"unparseable dropped", []string{"()", "1.2.3", "7"}, []float64{7}},
	}

	logger := arbor.NewNoOpLogger()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertNumbers(tt.tokens, "https://example.test/news", logger)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAfter(t *testing.T) {
	tokens := []Token{
		{TokenValue, "1"},
		{TokenAnchor, AnchorProfit},
		{TokenValue, "2"},
		{TokenAnchor, AnchorProfit},
		{TokenValue, "3"},
		{TokenValue, "4"},
	}

	window, anchored := After(tokens, AnchorProfit, 3, true)
	assert.True(t, anchored)
	assert.Equal(t, []string{"2", AnchorProfit, "3"}, Texts(window))

	window, anchored = After(tokens, AnchorProfit, 10, true)
	assert.True(t, anchored)
	assert.Len(t, window, 4)

	window, anchored = After(tokens, AnchorProfit, 0, false)
	assert.True(t, anchored)
	assert.Empty(t, window)

	// without an anchor the first token is skipped
	window, anchored = After(tokens, AnchorIncrease, 2, true)
	assert.False(t, anchored)
	assert.Equal(t, []string{AnchorProfit, "2"}, Texts(window))

	window, anchored = After(tokens, AnchorEPS, 2, false)
	assert.False(t, anchored)
	assert.Empty(t, window)
}

func TestBeforeAndPreferredAnchor(t *testing.T) {
	tokens := Tokenize(yearsPattern, "2023 Profit 2022 Increase 2021", AnchorIncrease, AnchorProfit)

	anchor, ok := PreferredAnchor(tokens, AnchorIncrease, AnchorProfit)
	assert.True(t, ok)
	assert.Equal(t, AnchorIncrease, anchor)

	assert.Equal(t, []string{"2023", AnchorProfit, "2022"}, Texts(Before(tokens, anchor)))
	assert.Len(t, Before(tokens, ""), 5)

	_, ok = PreferredAnchor(Tokenize(yearsPattern, "2023 2022"), AnchorIncrease, AnchorProfit)
	assert.False(t, ok)
}
