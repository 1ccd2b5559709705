// Package sentiment scores market mood from block-level price moves.
// Scores are weighted per block, capped, and labelled; no network calls.
package sentiment

import (
	"fmt"
	"math"
	"strings"

	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/market"
)

// Label is the qualitative reading of a section or the whole market
type Label string

const (
	StrongBullish Label = "strong_bullish"
	Bullish       Label = "bullish"
	Neutral       Label = "neutral"
	Bearish       Label = "bearish"
	StrongBearish Label = "strong_bearish"
)

// Section thresholds on average percent change
const (
	sectionStrong = 1.5
	sectionMild   = 0.5
)

// Overall thresholds on the weighted score
const (
	overallStrong = 1.5
	overallMild   = 0.4
	scoreCap      = 3.0
)

// DefaultWeights is the per-block contribution to the overall score.
// Blocks not listed contribute nothing.
var DefaultWeights = map[string]float64{
	"us_futures":       0.30,
	"european_futures": 0.20,
	"asian_focus":      0.15,
	"volatility":       0.15,
	"fx":               0.10,
	"rates":            0.07,
	"crypto":           0.03,
}

// SectionResult is the sentiment reading of one market block
type SectionResult struct {
	Name      string   `json:"name"`
	AvgChange float64  `json:"avg_change"`
	Label     Label    `json:"label"`
	Quoted    int      `json:"quoted"`
	Missing   []string `json:"missing,omitempty"`
	Weight    float64  `json:"weight"`
}

// Analysis is the full sentiment snapshot for a briefing
type Analysis struct {
	Sections   []SectionResult `json:"sections"`
	Score      float64         `json:"score"`
	Label      Label           `json:"label"`
	Confidence float64         `json:"confidence"`
}

// Analyzer computes sentiment from blocks and quotes
type Analyzer struct {
	weights map[string]float64
}

// NewAnalyzer creates an analyzer; nil weights fall back to DefaultWeights
func NewAnalyzer(weights map[string]float64) *Analyzer {
	if weights == nil {
		weights = DefaultWeights
	}
	return &Analyzer{weights: weights}
}

// Analyze scores each block and combines them into an overall reading.
// A rising VIX reads bearish, so the volatility block's sign is
// inverted. Blocks with no quotes carry zero weight in the result and
// lower the confidence.
func (a *Analyzer) Analyze(blocks []db.MarketBlock, quotes map[string]market.Quote) *Analysis {
	analysis := &Analysis{}

	var score float64
	var usedWeight float64
	var agree, disagree int

	for _, block := range blocks {
		section := a.analyzeSection(block, quotes)
		analysis.Sections = append(analysis.Sections, section)

		if section.Quoted == 0 {
			continue
		}

		effective := section.AvgChange
		if block.Name == "volatility" {
			effective = -effective
		}

		score += effective * section.Weight
		usedWeight += section.Weight

		switch direction(section.Label) {
		case 1:
			agree++
		case -1:
			disagree++
		}
	}

	if score > scoreCap {
		score = scoreCap
	}
	if score < -scoreCap {
		score = -scoreCap
	}
	analysis.Score = score
	analysis.Label = overallLabel(score)
	analysis.Confidence = a.confidence(analysis, usedWeight, agree, disagree)

	return analysis
}

func (a *Analyzer) analyzeSection(block db.MarketBlock, quotes map[string]market.Quote) SectionResult {
	section := SectionResult{
		Name:   block.Name,
		Weight: a.weights[block.Name],
	}

	var sum float64
	for _, symbol := range block.Symbols {
		quote, ok := quotes[symbol]
		if !ok {
			section.Missing = append(section.Missing, symbol)
			continue
		}
		sum += quote.ChangePercent
		section.Quoted++
	}

	if section.Quoted > 0 {
		section.AvgChange = sum / float64(section.Quoted)
	}

	avg := section.AvgChange
	if block.Name == "volatility" {
		avg = -avg
	}
	section.Label = sectionLabel(avg, section.Quoted)

	return section
}

func sectionLabel(avg float64, quoted int) Label {
	if quoted == 0 {
		return Neutral
	}
	switch {
	case avg >= sectionStrong:
		return StrongBullish
	case avg >= sectionMild:
		return Bullish
	case avg <= -sectionStrong:
		return StrongBearish
	case avg <= -sectionMild:
		return Bearish
	default:
		return Neutral
	}
}

func overallLabel(score float64) Label {
	switch {
	case score >= overallStrong:
		return StrongBullish
	case score >= overallMild:
		return Bullish
	case score <= -overallStrong:
		return StrongBearish
	case score <= -overallMild:
		return Bearish
	default:
		return Neutral
	}
}

func direction(l Label) int {
	switch l {
	case StrongBullish, Bullish:
		return 1
	case StrongBearish, Bearish:
		return -1
	default:
		return 0
	}
}

// confidence blends data completeness, signal strength, and section
// consensus: 0.4*completeness + 0.3*strength + 0.3*consensus.
func (a *Analyzer) confidence(analysis *Analysis, usedWeight float64, agree, disagree int) float64 {
	var totalWeight float64
	for _, s := range analysis.Sections {
		totalWeight += s.Weight
	}

	completeness := 0.0
	if totalWeight > 0 {
		completeness = usedWeight / totalWeight
	}

	strength := math.Min(math.Abs(analysis.Score)/scoreCap, 1.0)

	consensus := 1.0
	if agree+disagree > 0 {
		majority := agree
		if disagree > majority {
			majority = disagree
		}
		consensus = float64(majority) / float64(agree+disagree)
	}

	return 0.4*completeness + 0.3*strength + 0.3*consensus
}

// Describe renders the analysis as plain text for the LLM summary prompt
func (a *Analysis) Describe() string {
	var sb strings.Builder
	for _, s := range a.Sections {
		fmt.Fprintf(&sb, "%s: %.2f%% (%s)\n", s.Name, s.AvgChange, s.Label)
	}
	fmt.Fprintf(&sb, "overall: %.2f (%s), confidence %.2f", a.Score, a.Label, a.Confidence)
	return sb.String()
}
