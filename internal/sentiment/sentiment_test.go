package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/market"
)

func quoteMap(changes map[string]float64) map[string]market.Quote {
	quotes := make(map[string]market.Quote, len(changes))
	for symbol, pct := range changes {
		quotes[symbol] = market.Quote{Symbol: symbol, Price: 100, ChangePercent: pct}
	}
	return quotes
}

func TestSectionLabels(t *testing.T) {
	tests := []struct {
		name string
		avg  float64
		want Label
	}{
		{"strong bullish at boundary", 1.5, StrongBullish},
		{"bullish at boundary", 0.5, Bullish},
		{"neutral positive", 0.49, Neutral},
		{"neutral negative", -0.49, Neutral},
		{"bearish at boundary", -0.5, Bearish},
		{"strong bearish at boundary", -1.5, StrongBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sectionLabel(tt.avg, 1))
		})
	}
}

func TestSectionAveragesAndMissing(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F", "NQ=F", "YM=F"}},
	}
	quotes := quoteMap(map[string]float64{"ES=F": 1.0, "NQ=F": 2.0})

	analysis := analyzer.Analyze(blocks, quotes)
	require.Len(t, analysis.Sections, 1)

	section := analysis.Sections[0]
	assert.InDelta(t, 1.5, section.AvgChange, 1e-9)
	assert.Equal(t, StrongBullish, section.Label)
	assert.Equal(t, 2, section.Quoted)
	assert.Equal(t, []string{"YM=F"}, section.Missing)
}

func TestVolatilityIsInverted(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "volatility", Symbols: []string{"^VIX"}},
	}

	// VIX spiking 3% reads strongly bearish.
	up := analyzer.Analyze(blocks, quoteMap(map[string]float64{"^VIX": 3.0}))
	assert.Equal(t, StrongBearish, up.Sections[0].Label)
	assert.Negative(t, up.Score)

	// VIX falling reads bullish.
	down := analyzer.Analyze(blocks, quoteMap(map[string]float64{"^VIX": -1.0}))
	assert.Equal(t, Bullish, down.Sections[0].Label)
	assert.Positive(t, down.Score)
}

func TestOverallScoreIsWeightedAndCapped(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F"}},
		{Name: "european_futures", Symbols: []string{"^STOXX50E"}},
	}
	quotes := quoteMap(map[string]float64{"ES=F": 1.0, "^STOXX50E": 2.0})

	analysis := analyzer.Analyze(blocks, quotes)
	// 1.0*0.30 + 2.0*0.20
	assert.InDelta(t, 0.70, analysis.Score, 1e-9)
	assert.Equal(t, Bullish, analysis.Label)

	// Extreme moves never push the score past the cap.
	extreme := analyzer.Analyze(blocks, quoteMap(map[string]float64{"ES=F": 50, "^STOXX50E": 50}))
	assert.Equal(t, 3.0, extreme.Score)
	assert.Equal(t, StrongBullish, extreme.Label)

	crash := analyzer.Analyze(blocks, quoteMap(map[string]float64{"ES=F": -50, "^STOXX50E": -50}))
	assert.Equal(t, -3.0, crash.Score)
	assert.Equal(t, StrongBearish, crash.Label)
}

func TestOverallLabelBoundaries(t *testing.T) {
	assert.Equal(t, Bullish, overallLabel(0.4))
	assert.Equal(t, Neutral, overallLabel(0.39))
	assert.Equal(t, Neutral, overallLabel(-0.39))
	assert.Equal(t, Bearish, overallLabel(-0.4))
	assert.Equal(t, StrongBullish, overallLabel(1.5))
	assert.Equal(t, StrongBearish, overallLabel(-1.5))
}

func TestConfidenceFullAgreement(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F"}},
		{Name: "european_futures", Symbols: []string{"^STOXX50E"}},
	}
	quotes := quoteMap(map[string]float64{"ES=F": 2.0, "^STOXX50E": 2.0})

	analysis := analyzer.Analyze(blocks, quotes)

	// All blocks quoted, both bullish: completeness 1, consensus 1,
	// strength = |1.0| / 3.
	wantStrength := analysis.Score / 3.0
	want := 0.4*1.0 + 0.3*wantStrength + 0.3*1.0
	assert.InDelta(t, want, analysis.Confidence, 1e-9)
}

func TestConfidenceDropsWithMissingData(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F"}},
		{Name: "european_futures", Symbols: []string{"^STOXX50E"}},
	}

	full := analyzer.Analyze(blocks, quoteMap(map[string]float64{"ES=F": 2.0, "^STOXX50E": 2.0}))
	partial := analyzer.Analyze(blocks, quoteMap(map[string]float64{"ES=F": 2.0}))

	assert.Less(t, partial.Confidence, full.Confidence)
}

func TestConfidenceDropsWithDisagreement(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	blocks := []db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F"}},
		{Name: "european_futures", Symbols: []string{"^STOXX50E"}},
		{Name: "asian_focus", Symbols: []string{"^N225"}},
	}

	aligned := analyzer.Analyze(blocks, quoteMap(map[string]float64{
		"ES=F": 1.0, "^STOXX50E": 1.0, "^N225": 1.0,
	}))
	split := analyzer.Analyze(blocks, quoteMap(map[string]float64{
		"ES=F": 1.0, "^STOXX50E": 1.0, "^N225": -1.0,
	}))

	assert.Less(t, split.Confidence, aligned.Confidence)
}

func TestEmptyBlocksAreNeutral(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analysis := analyzer.Analyze([]db.MarketBlock{
		{Name: "crypto", Symbols: []string{"BTC-USD"}},
	}, nil)

	assert.Equal(t, 0.0, analysis.Score)
	assert.Equal(t, Neutral, analysis.Label)
	assert.Equal(t, Neutral, analysis.Sections[0].Label)
}

func TestDescribeMentionsEverySection(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analysis := analyzer.Analyze([]db.MarketBlock{
		{Name: "us_futures", Symbols: []string{"ES=F"}},
		{Name: "fx", Symbols: []string{"EURUSD=X"}},
	}, quoteMap(map[string]float64{"ES=F": 0.8, "EURUSD=X": -0.2}))

	text := analysis.Describe()
	assert.Contains(t, text, "us_futures")
	assert.Contains(t, text, "fx")
	assert.Contains(t, text, "overall")
}
