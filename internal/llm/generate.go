package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
)

const (
	commentarySystem = `You are a sharp, opinionated hedge fund manager posting market
commentary on Twitter. You are concise, confident, and occasionally
contrarian. Never use hashtags. Never give financial advice.`

	deepDiveSystem = `You are a hedge fund manager writing a multi-part Twitter thread
that digs into one market story. Each part builds on the last. Plain
language, strong point of view, no hashtags.`

	scoringSystem = `You are a markets editor triaging headlines. Rate the market
impact of a headline on a scale of 1 to 10, where 10 moves global
markets and 1 is noise. Reply with the number only.`
)

var (
	scoreRe = regexp.MustCompile(`(\d+)\s*(?:/\s*10)?`)
	partRe  = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
)

// Generator produces content through the LLM client
type Generator struct {
	client      *Client
	disclaimer  string
	threadParts int
	retries     int
}

// NewGenerator creates a content generator
func NewGenerator(client *Client, disclaimer string, threadParts int) *Generator {
	if threadParts <= 0 {
		threadParts = 3
	}
	return &Generator{
		client:      client,
		disclaimer:  disclaimer,
		threadParts: threadParts,
		retries:     2,
	}
}

// ScoreHeadline rates a headline's market impact from 1 to 10. The reply
// is parsed leniently ("8", "8/10", "Score: 8") and clamped to [1, 10].
func (g *Generator) ScoreHeadline(ctx context.Context, headline string) (int, error) {
	start := time.Now()
	resp, err := g.client.CompleteWithRetry(ctx, []ChatMessage{
		{Role: "system", Content: scoringSystem},
		{Role: "user", Content: fmt.Sprintf("Headline: %s", headline)},
	}, g.retries)
	metrics.RecordLLMRequest("score_headline", err, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to score headline: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices in scoring response")
	}

	return ParseScore(resp.Choices[0].Message.Content)
}

// ParseScore extracts a 1-10 score from an LLM reply
func ParseScore(reply string) (int, error) {
	m := scoreRe.FindStringSubmatch(reply)
	if m == nil {
		return 0, fmt.Errorf("no score found in reply %q", reply)
	}

	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("failed to parse score %q: %w", m[1], err)
	}

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

// GenerateCommentary writes a tweet-length take on a headline. The model
// replies "THEME|COMMENTARY"; the theme feeds the similarity tracker and
// the commentary gets the standing disclaimer appended.
func (g *Generator) GenerateCommentary(ctx context.Context, headline string) (*Commentary, error) {
	prompt := fmt.Sprintf(`Headline: %s

Write a punchy take on this in at most 240 characters.
Reply in exactly this format:
THEME|COMMENTARY
where THEME is a 3-8 word topic label and COMMENTARY is the tweet text.`, headline)

	start := time.Now()
	resp, err := g.client.CompleteWithRetry(ctx, []ChatMessage{
		{Role: "system", Content: commentarySystem},
		{Role: "user", Content: prompt},
	}, g.retries)
	metrics.RecordLLMRequest("commentary", err, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate commentary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in commentary response")
	}

	commentary, err := ParseCommentary(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	if g.disclaimer != "" {
		commentary.Text = commentary.Text + "\n\n" + g.disclaimer
	}
	return commentary, nil
}

// ParseCommentary splits a "THEME|COMMENTARY" reply
func ParseCommentary(reply string) (*Commentary, error) {
	reply = strings.TrimSpace(reply)
	theme, text, found := strings.Cut(reply, "|")
	if !found {
		return nil, fmt.Errorf("reply missing THEME|COMMENTARY separator: %q", reply)
	}

	theme = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(theme), "THEME:"))
	text = strings.TrimSpace(text)
	if theme == "" || text == "" {
		return nil, fmt.Errorf("reply has empty theme or commentary: %q", reply)
	}

	return &Commentary{Theme: theme, Text: text}, nil
}

// GenerateThread writes a deep-dive thread on a headline. Parts are
// numbered "(1/3)" style and the disclaimer lands on the final part.
func (g *Generator) GenerateThread(ctx context.Context, headline string) ([]string, error) {
	prompt := fmt.Sprintf(`Headline: %s

Write a %d-part analysis thread. Each part must stand alone as a tweet
under 250 characters. Separate the parts with a line containing only
"---". Do not number the parts yourself.`, headline, g.threadParts)

	start := time.Now()
	resp, err := g.client.CompleteWithRetry(ctx, []ChatMessage{
		{Role: "system", Content: deepDiveSystem},
		{Role: "user", Content: prompt},
	}, g.retries)
	metrics.RecordLLMRequest("thread", err, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate thread: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in thread response")
	}

	parts, err := SplitThread(resp.Choices[0].Message.Content, g.threadParts)
	if err != nil {
		return nil, err
	}

	for i := range parts {
		parts[i] = fmt.Sprintf("%s (%d/%d)", parts[i], i+1, len(parts))
	}
	if g.disclaimer != "" {
		last := len(parts) - 1
		parts[last] = parts[last] + "\n\n" + g.disclaimer
	}
	return parts, nil
}

// SplitThread cuts a reply on "---" delimiter lines and checks the part
// count. A reply with more parts than expected is truncated; fewer is an
// error.
func SplitThread(reply string, expected int) ([]string, error) {
	raw := partRe.Split(reply, -1)

	var parts []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) < expected {
		return nil, fmt.Errorf("expected %d thread parts, got %d", expected, len(parts))
	}
	return parts[:expected], nil
}

// SummarizeSentiment turns section-level sentiment data into a short
// narrative paragraph for the briefing.
func (g *Generator) SummarizeSentiment(ctx context.Context, briefingTitle string, sectionsDescription string) (string, error) {
	prompt := fmt.Sprintf(`%s

Section data:
%s

Write one paragraph (under 600 characters) summarizing the market mood
for this briefing. Mention the strongest movers. No hashtags.`, briefingTitle, sectionsDescription)

	start := time.Now()
	summary, err := g.client.CompleteWithSystem(ctx, commentarySystem, prompt)
	metrics.RecordLLMRequest("sentiment_summary", err, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return "", fmt.Errorf("failed to summarize sentiment: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
