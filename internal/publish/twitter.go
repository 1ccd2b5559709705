// Package publish delivers generated content to its outlets: Twitter,
// Notion, markdown articles, and the local JSON cache.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/oauth1"
	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
)

const (
	defaultTwitterBaseURL = "https://api.twitter.com/2"
	maxTweetLen           = 280
)

// TwitterClient posts tweets and threads via the v2 API using OAuth 1.0a
// user-context auth.
type TwitterClient struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewTwitterClient builds a client from the four OAuth 1.0a credentials
func NewTwitterClient(cfg config.TwitterConfig) (*TwitterClient, error) {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" ||
		cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, fmt.Errorf("twitter credentials incomplete")
	}

	oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &TwitterClient{
		httpClient: httpClient,
		baseURL:    defaultTwitterBaseURL,
		logger:     config.NewLogger("twitter"),
	}, nil
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// Post publishes a single tweet and returns its ID. Text longer than
// 280 characters is truncated at a word boundary with an ellipsis.
func (c *TwitterClient) Post(ctx context.Context, text string) (string, error) {
	return c.post(ctx, text, "")
}

// PostThread publishes parts as a reply chain. It returns the IDs of
// every tweet that made it out; a mid-thread failure returns those IDs
// alongside the error so callers can record the partial thread.
func (c *TwitterClient) PostThread(ctx context.Context, parts []string) ([]string, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty thread")
	}

	var ids []string
	replyTo := ""
	for i, part := range parts {
		id, err := c.post(ctx, part, replyTo)
		if err != nil {
			return ids, fmt.Errorf("thread stopped at part %d of %d: %w", i+1, len(parts), err)
		}
		ids = append(ids, id)
		replyTo = id
	}

	return ids, nil
}

func (c *TwitterClient) post(ctx context.Context, text, replyTo string) (string, error) {
	req := tweetRequest{Text: Truncate(text, maxTweetLen)}
	if replyTo != "" {
		req.Reply = &tweetReply{InReplyToTweetID: replyTo}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tweet: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed tweetResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusCreated || parsed.Data.ID == "" {
		detail := parsed.Detail
		if detail == "" {
			detail = parsed.Title
		}
		return "", fmt.Errorf("tweet rejected (status %d): %s", resp.StatusCode, detail)
	}

	c.logger.Info().
		Str("tweet_id", parsed.Data.ID).
		Int("length", utf8.RuneCountInString(req.Text)).
		Msg("Tweet posted")

	return parsed.Data.ID, nil
}

// Engagement is the public-metrics snapshot of one tweet
type Engagement struct {
	Likes    int
	Retweets int
	Replies  int
}

type metricsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// LookupMetrics fetches public engagement metrics for up to 100 tweets.
// Tweets the API omits (deleted, withheld) are absent from the map.
func (c *TwitterClient) LookupMetrics(ctx context.Context, ids []string) (map[string]Engagement, error) {
	if len(ids) == 0 {
		return map[string]Engagement{}, nil
	}
	if len(ids) > 100 {
		ids = ids[:100]
	}

	url := fmt.Sprintf("%s/tweets?ids=%s&tweet.fields=public_metrics",
		c.baseURL, strings.Join(ids, ","))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed metricsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics lookup rejected (status %d): %s", resp.StatusCode, parsed.Detail)
	}

	out := make(map[string]Engagement, len(parsed.Data))
	for _, d := range parsed.Data {
		out[d.ID] = Engagement{
			Likes:    d.PublicMetrics.LikeCount,
			Retweets: d.PublicMetrics.RetweetCount,
			Replies:  d.PublicMetrics.ReplyCount,
		}
	}
	return out, nil
}

// Truncate shortens text to max runes, cutting at the last word
// boundary and appending an ellipsis. Text already within the limit is
// returned unchanged.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max-1])

	if idx := strings.LastIndexAny(cut, " \n\t"); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimRight(cut, " \n\t.,;:") + "…"
}
